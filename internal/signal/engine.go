// Package signal evaluates ledger changes against trading heuristics and
// emits Back/Lay recommendations.
package signal

import (
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/sports-trading-agent/internal/models"
)

// Detector is one trading heuristic run against every ledger change.
type Detector interface {
	Kind() models.SignalKind
	Enabled() bool
	// Detect evaluates a ledger change. market holds the current quotes for
	// the changed selection across all bookmakers, including the changed one.
	Detect(change *models.QuoteChange, market []models.OddsQuote) []models.Signal
}

// Engine runs the configured detectors over ledger changes.
type Engine struct {
	detectors []Detector
	logger    zerolog.Logger
}

// NewEngine creates an engine over the given detectors.
func NewEngine(logger zerolog.Logger, detectors ...Detector) *Engine {
	return &Engine{
		detectors: detectors,
		logger:    logger.With().Str("component", "signal_engine").Logger(),
	}
}

// Evaluate runs every enabled detector against a ledger change and collects
// the emitted signals. A detector emitting nothing is the normal case.
func (e *Engine) Evaluate(change *models.QuoteChange, market []models.OddsQuote) []models.Signal {
	signals := make([]models.Signal, 0)

	for _, d := range e.detectors {
		if !d.Enabled() {
			continue
		}
		signals = append(signals, d.Detect(change, market)...)
	}

	if len(signals) > 0 {
		e.logger.Debug().
			Str("event_id", change.Quote.EventID).
			Str("selection", change.Quote.Selection).
			Int("count", len(signals)).
			Msg("detectors emitted signals")
	}

	return signals
}
