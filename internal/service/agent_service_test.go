package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cypherlabdev/sports-trading-agent/internal/ledger"
	"github.com/cypherlabdev/sports-trading-agent/internal/mocks"
	"github.com/cypherlabdev/sports-trading-agent/internal/models"
	"github.com/cypherlabdev/sports-trading-agent/internal/signal"
)

// testAgentSetup is a helper struct to hold test dependencies
type testAgentSetup struct {
	book           *ledger.Book
	mockStore      *mocks.MockQuoteStore
	mockHistory    *mocks.MockHistory
	mockDispatcher *mocks.MockDispatcher
	mockPublisher  *mocks.MockPublisher
	ctrl           *gomock.Controller
	ctx            context.Context
}

// setupTestAgent creates mocked dependencies for the pipeline service
func setupTestAgent(t *testing.T) *testAgentSetup {
	ctrl := gomock.NewController(t)

	return &testAgentSetup{
		book:           ledger.NewBook(30*time.Minute, zerolog.Nop()),
		mockStore:      mocks.NewMockQuoteStore(ctrl),
		mockHistory:    mocks.NewMockHistory(ctrl),
		mockDispatcher: mocks.NewMockDispatcher(ctrl),
		mockPublisher:  mocks.NewMockPublisher(ctrl),
		ctrl:           ctrl,
		ctx:            context.Background(),
	}
}

func (s *testAgentSetup) cleanup() {
	s.ctrl.Finish()
}

// service builds an AgentService over the mocks with the given detectors.
func (s *testAgentSetup) service(detectors ...signal.Detector) *AgentService {
	engine := signal.NewEngine(zerolog.Nop(), detectors...)
	return NewAgentService(s.book, s.mockStore, engine, s.mockHistory, s.mockDispatcher, s.mockPublisher, zerolog.Nop())
}

func agentQuote(selection string, back, lay float64) models.OddsQuote {
	return models.OddsQuote{
		ID:         uuid.New(),
		EventID:    "event-123",
		EventName:  "Team A vs Team B",
		Sport:      "soccer",
		Market:     "h2h",
		Selection:  selection,
		Bookmaker:  "betfair",
		BackPrice:  decimal.NewFromFloat(back),
		LayPrice:   decimal.NewFromFloat(lay),
		Source:     "test",
		Timestamp:  time.Now().UTC(),
		ReceivedAt: time.Now().UTC(),
	}
}

// TestProcessQuotes_NewQuote tests ingestion of a first-seen quote
func TestProcessQuotes_NewQuote(t *testing.T) {
	setup := setupTestAgent(t)
	defer setup.cleanup()

	svc := setup.service()

	setup.mockHistory.EXPECT().RecordChange(gomock.Any(), gomock.Any()).Return(nil)
	setup.mockStore.EXPECT().SetBatch(gomock.Any(), gomock.Len(1)).Return(nil)

	err := svc.ProcessQuotes(setup.ctx, []models.OddsQuote{agentQuote("Team A", 2.50, 2.60)}, "test")

	assert.NoError(t, err)
	assert.Equal(t, 1, setup.book.Len())
}

// TestProcessQuotes_RejectsInvalid tests that invalid quotes are dropped
// without failing the batch
func TestProcessQuotes_RejectsInvalid(t *testing.T) {
	setup := setupTestAgent(t)
	defer setup.cleanup()

	svc := setup.service()

	// Only the valid quote is recorded and stored.
	setup.mockHistory.EXPECT().RecordChange(gomock.Any(), gomock.Any()).Return(nil)
	setup.mockStore.EXPECT().SetBatch(gomock.Any(), gomock.Len(1)).Return(nil)

	quotes := []models.OddsQuote{
		agentQuote("Bad", 0.95, 0),
		agentQuote("Team A", 2.50, 2.60),
	}

	err := svc.ProcessQuotes(setup.ctx, quotes, "test")

	assert.NoError(t, err)
	assert.Equal(t, 1, setup.book.Len())
}

// TestProcessQuotes_UnchangedSkipsStore tests that an unchanged quote does
// not hit the store again
func TestProcessQuotes_UnchangedSkipsStore(t *testing.T) {
	setup := setupTestAgent(t)
	defer setup.cleanup()

	svc := setup.service()

	q := agentQuote("Team A", 2.50, 2.60)

	setup.mockHistory.EXPECT().RecordChange(gomock.Any(), gomock.Any()).Return(nil)
	setup.mockStore.EXPECT().SetBatch(gomock.Any(), gomock.Len(1)).Return(nil)
	require.NoError(t, svc.ProcessQuotes(setup.ctx, []models.OddsQuote{q}, "test"))

	// Same prices again: no change, no store write, no history record.
	require.NoError(t, svc.ProcessQuotes(setup.ctx, []models.OddsQuote{q}, "test"))
}

// TestProcessQuotes_EmitsSignal tests the full emit path
func TestProcessQuotes_EmitsSignal(t *testing.T) {
	setup := setupTestAgent(t)
	defer setup.cleanup()

	params := models.CycleParams{
		MaxBackOdds: decimal.NewFromFloat(1.06),
		MinLayOdds:  decimal.NewFromFloat(30.0),
		GreenTarget: decimal.NewFromFloat(0.05),
		Bankroll:    decimal.NewFromInt(1000),
	}
	svc := setup.service(signal.NewCycleDetector(true, params))

	setup.mockHistory.EXPECT().RecordChange(gomock.Any(), gomock.Any()).Return(nil)
	setup.mockHistory.EXPECT().RecordSignal(gomock.Any(), gomock.Any()).Return(nil)
	setup.mockPublisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
	setup.mockDispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Return(nil)
	setup.mockStore.EXPECT().SetBatch(gomock.Any(), gomock.Len(1)).Return(nil)

	err := svc.ProcessQuotes(setup.ctx, []models.OddsQuote{agentQuote("Team A", 1.05, 1.06)}, "test")

	assert.NoError(t, err)
}

// TestProcessQuotes_DownstreamFailuresDoNotAbort tests that store, history
// and dispatch errors never fail the batch
func TestProcessQuotes_DownstreamFailuresDoNotAbort(t *testing.T) {
	setup := setupTestAgent(t)
	defer setup.cleanup()

	params := models.CycleParams{
		MaxBackOdds: decimal.NewFromFloat(1.06),
		MinLayOdds:  decimal.NewFromFloat(30.0),
		GreenTarget: decimal.NewFromFloat(0.05),
		Bankroll:    decimal.NewFromInt(1000),
	}
	svc := setup.service(signal.NewCycleDetector(true, params))

	setup.mockHistory.EXPECT().RecordChange(gomock.Any(), gomock.Any()).Return(assert.AnError)
	setup.mockHistory.EXPECT().RecordSignal(gomock.Any(), gomock.Any()).Return(assert.AnError)
	setup.mockPublisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(assert.AnError)
	setup.mockDispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Return(assert.AnError)
	setup.mockStore.EXPECT().SetBatch(gomock.Any(), gomock.Any()).Return(assert.AnError)

	err := svc.ProcessQuotes(setup.ctx, []models.OddsQuote{agentQuote("Team A", 1.05, 1.06)}, "test")

	assert.NoError(t, err)
}

// TestProcessQuotes_NilHistoryAndPublisher tests optional dependencies
func TestProcessQuotes_NilHistoryAndPublisher(t *testing.T) {
	setup := setupTestAgent(t)
	defer setup.cleanup()

	params := models.CycleParams{
		MaxBackOdds: decimal.NewFromFloat(1.06),
		MinLayOdds:  decimal.NewFromFloat(30.0),
		GreenTarget: decimal.NewFromFloat(0.05),
		Bankroll:    decimal.NewFromInt(1000),
	}
	engine := signal.NewEngine(zerolog.Nop(), signal.NewCycleDetector(true, params))
	svc := NewAgentService(setup.book, setup.mockStore, engine, nil, setup.mockDispatcher, nil, zerolog.Nop())

	setup.mockDispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Return(nil)
	setup.mockStore.EXPECT().SetBatch(gomock.Any(), gomock.Any()).Return(nil)

	err := svc.ProcessQuotes(setup.ctx, []models.OddsQuote{agentQuote("Team A", 1.05, 1.06)}, "test")

	assert.NoError(t, err)
}

// TestEventQuotes_StoreFirst tests that the hot store is preferred
func TestEventQuotes_StoreFirst(t *testing.T) {
	setup := setupTestAgent(t)
	defer setup.cleanup()

	svc := setup.service()

	stored := agentQuote("Team A", 2.50, 2.60)
	setup.mockStore.EXPECT().
		GetByEvent(gomock.Any(), "event-123").
		Return([]*models.OddsQuote{&stored}, nil)

	quotes, err := svc.EventQuotes(setup.ctx, "event-123")

	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "Team A", quotes[0].Selection)
}

// TestEventQuotes_BookFallback tests falling back to the in-memory book
func TestEventQuotes_BookFallback(t *testing.T) {
	setup := setupTestAgent(t)
	defer setup.cleanup()

	svc := setup.service()

	// Seed the book through the pipeline.
	setup.mockHistory.EXPECT().RecordChange(gomock.Any(), gomock.Any()).Return(nil)
	setup.mockStore.EXPECT().SetBatch(gomock.Any(), gomock.Any()).Return(nil)
	require.NoError(t, svc.ProcessQuotes(setup.ctx, []models.OddsQuote{agentQuote("Team A", 2.50, 2.60)}, "test"))

	setup.mockStore.EXPECT().
		GetByEvent(gomock.Any(), "event-123").
		Return(nil, assert.AnError)

	quotes, err := svc.EventQuotes(setup.ctx, "event-123")

	require.NoError(t, err)
	assert.Len(t, quotes, 1)
}

// TestEventSignals_HistoryDisabled tests the disabled-history error
func TestEventSignals_HistoryDisabled(t *testing.T) {
	setup := setupTestAgent(t)
	defer setup.cleanup()

	engine := signal.NewEngine(zerolog.Nop())
	svc := NewAgentService(setup.book, setup.mockStore, engine, nil, setup.mockDispatcher, nil, zerolog.Nop())

	signals, err := svc.EventSignals(setup.ctx, "event-123", 10)

	assert.ErrorIs(t, err, ErrHistoryDisabled)
	assert.Nil(t, signals)
}

// TestEventSignals_FromHistory tests passthrough to the history store
func TestEventSignals_FromHistory(t *testing.T) {
	setup := setupTestAgent(t)
	defer setup.cleanup()

	svc := setup.service()

	expected := []models.Signal{{ID: uuid.New(), Kind: models.SignalArbitrage, EventID: "event-123"}}
	setup.mockHistory.EXPECT().
		RecentSignals(gomock.Any(), "event-123", 10).
		Return(expected, nil)

	signals, err := svc.EventSignals(setup.ctx, "event-123", 10)

	require.NoError(t, err)
	assert.Equal(t, expected, signals)
}
