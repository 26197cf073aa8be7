package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
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
	"github.com/cypherlabdev/sports-trading-agent/internal/service"
	"github.com/cypherlabdev/sports-trading-agent/internal/signal"
)

type stubCapture struct {
	active bool
}

func (s *stubCapture) StartCapture() bool {
	if s.active {
		return false
	}
	s.active = true
	return true
}

func (s *stubCapture) StopCapture() bool {
	if !s.active {
		return false
	}
	s.active = false
	return true
}

func (s *stubCapture) CaptureActive() bool { return s.active }

type stubCredits struct{ remaining int }

func (s *stubCredits) Remaining() int { return s.remaining }

// testHandlerSetup is a helper struct to hold test dependencies
type testHandlerSetup struct {
	mux         *http.ServeMux
	mockStore   *mocks.MockQuoteStore
	mockHistory *mocks.MockHistory
	events      *ledger.EventIndex
	capture     *stubCapture
	ctrl        *gomock.Controller
}

// setupTestHandler wires a handler over a real service with mocked stores
func setupTestHandler(t *testing.T) *testHandlerSetup {
	ctrl := gomock.NewController(t)

	mockStore := mocks.NewMockQuoteStore(ctrl)
	mockHistory := mocks.NewMockHistory(ctrl)
	mockDispatcher := mocks.NewMockDispatcher(ctrl)

	book := ledger.NewBook(30*time.Minute, zerolog.Nop())
	engine := signal.NewEngine(zerolog.Nop())
	svc := service.NewAgentService(book, mockStore, engine, mockHistory, mockDispatcher, nil, zerolog.Nop())

	events := ledger.NewEventIndex()
	capture := &stubCapture{active: true}

	handler := NewAPIHandler(svc, events, capture, &stubCredits{remaining: 12}, zerolog.Nop())
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	return &testHandlerSetup{
		mux:         mux,
		mockStore:   mockStore,
		mockHistory: mockHistory,
		events:      events,
		capture:     capture,
		ctrl:        ctrl,
	}
}

func (s *testHandlerSetup) cleanup() {
	s.ctrl.Finish()
}

func (s *testHandlerSetup) request(t *testing.T, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

// TestGetQuotes_Success tests GET /api/v1/quotes/:event_id
func TestGetQuotes_Success(t *testing.T) {
	setup := setupTestHandler(t)
	defer setup.cleanup()

	quote := &models.OddsQuote{
		ID:        uuid.New(),
		EventID:   "event-123",
		Market:    "h2h",
		Selection: "Team A",
		Bookmaker: "betfair",
		BackPrice: decimal.NewFromFloat(2.50),
		LayPrice:  decimal.NewFromFloat(2.60),
	}
	setup.mockStore.EXPECT().
		GetByEvent(gomock.Any(), "event-123").
		Return([]*models.OddsQuote{quote}, nil)

	rec := setup.request(t, http.MethodGet, "/api/v1/quotes/event-123")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "event-123", body["event_id"])
	assert.Equal(t, float64(1), body["count"])
}

// TestGetQuotes_InvalidPath tests path validation
func TestGetQuotes_InvalidPath(t *testing.T) {
	setup := setupTestHandler(t)
	defer setup.cleanup()

	rec := setup.request(t, http.MethodGet, "/api/v1/quotes/event-123/extra")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestGetQuotes_MethodNotAllowed tests method validation
func TestGetQuotes_MethodNotAllowed(t *testing.T) {
	setup := setupTestHandler(t)
	defer setup.cleanup()

	rec := setup.request(t, http.MethodPost, "/api/v1/quotes/event-123")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// TestGetSignals_Success tests GET /api/v1/signals/:event_id
func TestGetSignals_Success(t *testing.T) {
	setup := setupTestHandler(t)
	defer setup.cleanup()

	setup.mockHistory.EXPECT().
		RecentSignals(gomock.Any(), "event-123", 50).
		Return([]models.Signal{{ID: uuid.New(), Kind: models.SignalDrift, EventID: "event-123"}}, nil)

	rec := setup.request(t, http.MethodGet, "/api/v1/signals/event-123")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["count"])
}

// TestGetSignals_CustomLimit tests the limit query parameter
func TestGetSignals_CustomLimit(t *testing.T) {
	setup := setupTestHandler(t)
	defer setup.cleanup()

	setup.mockHistory.EXPECT().
		RecentSignals(gomock.Any(), "event-123", 5).
		Return([]models.Signal{}, nil)

	rec := setup.request(t, http.MethodGet, "/api/v1/signals/event-123?limit=5")
	assert.Equal(t, http.StatusOK, rec.Code)
}

// TestGetSignals_InvalidLimit tests limit validation
func TestGetSignals_InvalidLimit(t *testing.T) {
	setup := setupTestHandler(t)
	defer setup.cleanup()

	rec := setup.request(t, http.MethodGet, "/api/v1/signals/event-123?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = setup.request(t, http.MethodGet, "/api/v1/signals/event-123?limit=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestGetSignals_HistoryDisabled tests the 501 on a disabled history store
func TestGetSignals_HistoryDisabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	book := ledger.NewBook(30*time.Minute, zerolog.Nop())
	engine := signal.NewEngine(zerolog.Nop())
	svc := service.NewAgentService(book, mocks.NewMockQuoteStore(ctrl), engine, nil, mocks.NewMockDispatcher(ctrl), nil, zerolog.Nop())

	handler := NewAPIHandler(svc, ledger.NewEventIndex(), &stubCapture{active: true}, nil, zerolog.Nop())
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/signals/event-123", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

// TestListEvents tests GET /api/v1/events
func TestListEvents(t *testing.T) {
	setup := setupTestHandler(t)
	defer setup.cleanup()

	setup.events.UpsertBatch([]models.Event{
		{ID: "event-1", HomeTeam: "Team A", AwayTeam: "Team B", Status: models.EventLive},
		{ID: "event-2", HomeTeam: "Team C", AwayTeam: "Team D", Status: models.EventUpcoming},
	})

	rec := setup.request(t, http.MethodGet, "/api/v1/events")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(2), body["count"])
}

// TestCaptureControl tests POST /api/v1/capture/start and stop
func TestCaptureControl(t *testing.T) {
	setup := setupTestHandler(t)
	defer setup.cleanup()

	rec := setup.request(t, http.MethodPost, "/api/v1/capture/stop")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, setup.capture.CaptureActive())

	var body map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body["active"])
	assert.True(t, body["changed"])

	// Stopping again changes nothing.
	rec = setup.request(t, http.MethodPost, "/api/v1/capture/stop")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body["changed"])

	rec = setup.request(t, http.MethodPost, "/api/v1/capture/start")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, setup.capture.CaptureActive())
}

// TestCaptureControl_InvalidAction tests action validation
func TestCaptureControl_InvalidAction(t *testing.T) {
	setup := setupTestHandler(t)
	defer setup.cleanup()

	rec := setup.request(t, http.MethodPost, "/api/v1/capture/pause")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestCaptureStatus tests GET /api/v1/capture
func TestCaptureStatus(t *testing.T) {
	setup := setupTestHandler(t)
	defer setup.cleanup()

	rec := setup.request(t, http.MethodGet, "/api/v1/capture")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body["active"])
}

// TestGetCredits tests GET /api/v1/credits
func TestGetCredits(t *testing.T) {
	setup := setupTestHandler(t)
	defer setup.cleanup()

	rec := setup.request(t, http.MethodGet, "/api/v1/credits")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 12, body["remaining_today"])
}

// TestGetCredits_NoProvider tests the 501 without a budgeted provider
func TestGetCredits_NoProvider(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	book := ledger.NewBook(30*time.Minute, zerolog.Nop())
	engine := signal.NewEngine(zerolog.Nop())
	svc := service.NewAgentService(book, mocks.NewMockQuoteStore(ctrl), engine, nil, mocks.NewMockDispatcher(ctrl), nil, zerolog.Nop())

	handler := NewAPIHandler(svc, ledger.NewEventIndex(), &stubCapture{}, nil, zerolog.Nop())
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/credits", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}
