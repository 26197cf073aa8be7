package signal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/sports-trading-agent/internal/models"
	"github.com/cypherlabdev/sports-trading-agent/pkg/oddsmath"
)

// CycleDetector implements the cycle trading method: back at very short odds
// (small guaranteed green) or lay at very long odds (small green, bounded
// red), with the stake sized so a win takes the green target out of the
// bankroll.
type CycleDetector struct {
	enabled bool
	params  models.CycleParams
}

// NewCycleDetector creates the detector.
func NewCycleDetector(enabled bool, params models.CycleParams) *CycleDetector {
	return &CycleDetector{enabled: enabled, params: params}
}

// Kind implements Detector.
func (d *CycleDetector) Kind() models.SignalKind { return models.SignalCycle }

// Enabled implements Detector.
func (d *CycleDetector) Enabled() bool { return d.enabled }

// Detect implements Detector.
func (d *CycleDetector) Detect(change *models.QuoteChange, _ []models.OddsQuote) []models.Signal {
	q := change.Quote
	signals := make([]models.Signal, 0, 2)

	if q.BackPrice.GreaterThan(one) && q.BackPrice.LessThanOrEqual(d.params.MaxBackOdds) {
		signals = append(signals, d.backSignal(q))
	}
	if q.LayPrice.GreaterThan(decimal.Zero) && q.LayPrice.GreaterThanOrEqual(d.params.MinLayOdds) {
		signals = append(signals, d.laySignal(q))
	}

	return signals
}

var one = decimal.NewFromInt(1)

// backSignal recommends backing at short odds. The stake is sized so the
// green equals GreenTarget of the bankroll; the red is the stake itself.
func (d *CycleDetector) backSignal(q models.OddsQuote) models.Signal {
	profitMultiplier := q.BackPrice.Sub(one)
	stake := d.params.GreenTarget.Mul(d.params.Bankroll).Div(profitMultiplier)

	return models.Signal{
		ID:              uuid.New(),
		Kind:            models.SignalCycle,
		Action:          models.ActionBack,
		EventID:         q.EventID,
		EventName:       q.EventName,
		Sport:           q.Sport,
		Market:          q.Market,
		Selection:       q.Selection,
		BackBookmaker:   q.Bookmaker,
		BackPrice:       q.BackPrice,
		LayPrice:        q.LayPrice,
		Confidence:      0.90,
		Stake:           stake,
		PotentialProfit: oddsmath.BackProfit(stake, q.BackPrice),
		MaxLiability:    stake,
		Strategy:        "cycle_back",
		QuoteTimestamp:  q.Timestamp,
		DetectedAt:      time.Now().UTC(),
	}
}

// laySignal recommends laying at long odds. The stake equals the green
// target of the bankroll; the red is the lay liability.
func (d *CycleDetector) laySignal(q models.OddsQuote) models.Signal {
	stake := d.params.GreenTarget.Mul(d.params.Bankroll)

	return models.Signal{
		ID:              uuid.New(),
		Kind:            models.SignalCycle,
		Action:          models.ActionLay,
		EventID:         q.EventID,
		EventName:       q.EventName,
		Sport:           q.Sport,
		Market:          q.Market,
		Selection:       q.Selection,
		LayBookmaker:    q.Bookmaker,
		BackPrice:       q.BackPrice,
		LayPrice:        q.LayPrice,
		Confidence:      0.90,
		Stake:           stake,
		PotentialProfit: stake,
		MaxLiability:    oddsmath.LayLiability(stake, q.LayPrice),
		Strategy:        "cycle_lay",
		QuoteTimestamp:  q.Timestamp,
		DetectedAt:      time.Now().UTC(),
	}
}
