package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/sports-trading-agent/internal/ledger"
	"github.com/cypherlabdev/sports-trading-agent/internal/metrics"
	"github.com/cypherlabdev/sports-trading-agent/internal/models"
	"github.com/cypherlabdev/sports-trading-agent/internal/signal"
)

// ErrHistoryDisabled is returned when signal history is queried but no
// Postgres store is configured.
var ErrHistoryDisabled = errors.New("signal history persistence is disabled")

// AgentService wires the odds pipeline: ledger change detection, signal
// evaluation, persistence, publishing and alerting.
type AgentService struct {
	book       *ledger.Book
	store      QuoteStore
	engine     *signal.Engine
	history    History   // nil when persistence is disabled
	dispatcher Dispatcher
	publisher  Publisher // nil when the signals topic is disabled
	logger     zerolog.Logger
}

// NewAgentService creates the pipeline service. history and publisher may be
// nil; the corresponding steps are skipped.
func NewAgentService(
	book *ledger.Book,
	store QuoteStore,
	engine *signal.Engine,
	history History,
	dispatcher Dispatcher,
	publisher Publisher,
	logger zerolog.Logger,
) *AgentService {
	return &AgentService{
		book:       book,
		store:      store,
		engine:     engine,
		history:    history,
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger.With().Str("component", "agent_service").Logger(),
	}
}

// ProcessQuotes runs a batch of normalized quotes through the ledger and
// signal engine. Invalid quotes are dropped individually; the batch never
// fails as a whole.
func (s *AgentService) ProcessQuotes(ctx context.Context, quotes []models.OddsQuote, source string) error {
	changed := make([]*models.OddsQuote, 0, len(quotes))
	emitted := 0

	for i := range quotes {
		q := quotes[i]

		change, err := s.book.Apply(q)
		if err != nil {
			metrics.QuotesRejected.WithLabelValues(source).Inc()
			s.logger.Warn().
				Err(err).
				Str("event_id", q.EventID).
				Str("selection", q.Selection).
				Str("bookmaker", q.Bookmaker).
				Msg("rejected quote")
			continue
		}

		metrics.QuotesIngested.WithLabelValues(source).Inc()
		if change == nil {
			continue
		}

		metrics.QuoteChanges.Inc()
		changed = append(changed, &quotes[i])

		if s.history != nil {
			if err := s.history.RecordChange(ctx, change); err != nil {
				s.logger.Warn().Err(err).Str("key", q.Key()).Msg("failed to record quote change")
			}
		}

		market := s.book.SelectionQuotes(q.EventID, q.Market, q.Selection)
		for _, sig := range s.engine.Evaluate(change, market) {
			s.emit(ctx, sig)
			emitted++
		}
	}

	if len(changed) > 0 {
		if err := s.store.SetBatch(ctx, changed); err != nil {
			// Pipeline keeps running on store errors; the book stays authoritative.
			s.logger.Warn().Err(err).Int("count", len(changed)).Msg("failed to store quote batch")
		}
	}

	s.logger.Info().
		Str("source", source).
		Int("quotes", len(quotes)).
		Int("changed", len(changed)).
		Int("signals", emitted).
		Msg("processed quote batch")

	return nil
}

// emit persists, publishes and dispatches one signal. Downstream failures
// are logged and never abort the pipeline.
func (s *AgentService) emit(ctx context.Context, sig models.Signal) {
	metrics.SignalsEmitted.WithLabelValues(string(sig.Kind)).Inc()

	s.logger.Info().
		Str("kind", string(sig.Kind)).
		Str("action", string(sig.Action)).
		Str("event_id", sig.EventID).
		Str("selection", sig.Selection).
		Str("back", sig.BackPrice.String()).
		Str("lay", sig.LayPrice.String()).
		Float64("confidence", sig.Confidence).
		Msg("signal emitted")

	if s.history != nil {
		if err := s.history.RecordSignal(ctx, &sig); err != nil {
			s.logger.Warn().Err(err).Str("signal_id", sig.ID.String()).Msg("failed to record signal")
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, sig); err != nil {
			s.logger.Warn().Err(err).Str("signal_id", sig.ID.String()).Msg("failed to publish signal")
		}
	}

	if err := s.dispatcher.Dispatch(ctx, sig); err != nil {
		s.logger.Warn().Err(err).Str("signal_id", sig.ID.String()).Msg("failed to dispatch alert")
	}
}

// EventQuotes returns the current quotes for an event, store first with the
// in-memory book as fallback.
func (s *AgentService) EventQuotes(ctx context.Context, eventID string) ([]*models.OddsQuote, error) {
	quotes, err := s.store.GetByEvent(ctx, eventID)
	if err == nil && len(quotes) > 0 {
		return quotes, nil
	}
	if err != nil {
		s.logger.Debug().Err(err).Str("event_id", eventID).Msg("store miss, falling back to book")
	}

	fromBook := s.book.EventQuotes(eventID)
	out := make([]*models.OddsQuote, 0, len(fromBook))
	for i := range fromBook {
		out = append(out, &fromBook[i])
	}
	return out, nil
}

// EventSignals returns the most recent signals for an event from the history
// store.
func (s *AgentService) EventSignals(ctx context.Context, eventID string, limit int) ([]models.Signal, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}

	signals, err := s.history.RecentSignals(ctx, eventID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve signals: %w", err)
	}
	return signals, nil
}
