package signal

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/cypherlabdev/sports-trading-agent/internal/models"
)

type stubDetector struct {
	kind    models.SignalKind
	enabled bool
	signals []models.Signal
	calls   int
}

func (d *stubDetector) Kind() models.SignalKind { return d.kind }
func (d *stubDetector) Enabled() bool           { return d.enabled }
func (d *stubDetector) Detect(*models.QuoteChange, []models.OddsQuote) []models.Signal {
	d.calls++
	return d.signals
}

// TestEngineEvaluate_CollectsFromAllDetectors tests signal collection
func TestEngineEvaluate_CollectsFromAllDetectors(t *testing.T) {
	d1 := &stubDetector{kind: models.SignalArbitrage, enabled: true, signals: []models.Signal{{Kind: models.SignalArbitrage}}}
	d2 := &stubDetector{kind: models.SignalDrift, enabled: true, signals: []models.Signal{{Kind: models.SignalDrift}, {Kind: models.SignalDrift}}}

	engine := NewEngine(zerolog.Nop(), d1, d2)
	q := testQuote("Team A", "betfair", 2.00, 2.10)
	signals := engine.Evaluate(changeFor(q), nil)

	assert.Len(t, signals, 3)
	assert.Equal(t, 1, d1.calls)
	assert.Equal(t, 1, d2.calls)
}

// TestEngineEvaluate_SkipsDisabled tests that disabled detectors never run
func TestEngineEvaluate_SkipsDisabled(t *testing.T) {
	d1 := &stubDetector{kind: models.SignalCycle, enabled: false, signals: []models.Signal{{Kind: models.SignalCycle}}}

	engine := NewEngine(zerolog.Nop(), d1)
	q := testQuote("Team A", "betfair", 2.00, 2.10)
	signals := engine.Evaluate(changeFor(q), nil)

	assert.Empty(t, signals)
	assert.Equal(t, 0, d1.calls)
}

// TestEngineEvaluate_NoDetectors tests an empty engine
func TestEngineEvaluate_NoDetectors(t *testing.T) {
	engine := NewEngine(zerolog.Nop())
	q := testQuote("Team A", "betfair", 2.00, 2.10)
	signals := engine.Evaluate(changeFor(q), nil)

	assert.NotNil(t, signals)
	assert.Empty(t, signals)
}
