package signal

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/sports-trading-agent/internal/models"
	"github.com/cypherlabdev/sports-trading-agent/pkg/oddsmath"
)

// DriftDetector follows price movement: a back price shortening past the
// threshold recommends backing the steamer, a price drifting out recommends
// laying the drifter.
type DriftDetector struct {
	enabled         bool
	minDriftPercent decimal.Decimal // absolute percent move required
	baseStake       decimal.Decimal
}

// NewDriftDetector creates the detector. minDriftPercent is in percent
// (3 = a 3% move).
func NewDriftDetector(enabled bool, minDriftPercent, baseStake decimal.Decimal) *DriftDetector {
	return &DriftDetector{enabled: enabled, minDriftPercent: minDriftPercent, baseStake: baseStake}
}

// Kind implements Detector.
func (d *DriftDetector) Kind() models.SignalKind { return models.SignalDrift }

// Enabled implements Detector.
func (d *DriftDetector) Enabled() bool { return d.enabled }

// Detect implements Detector.
func (d *DriftDetector) Detect(change *models.QuoteChange, _ []models.OddsQuote) []models.Signal {
	// First sighting of a key has no reference price.
	if change.FirstSeen {
		return nil
	}

	drift := change.DriftPercent.Abs()
	if drift.LessThan(d.minDriftPercent) {
		return nil
	}

	q := change.Quote

	action := models.ActionLay
	strategy := "drift_lay"
	if change.BackDelta.IsNegative() {
		// Price shortening: the market is moving toward this selection.
		action = models.ActionBack
		strategy = "drift_back"
	}

	sig := models.Signal{
		ID:             uuid.New(),
		Kind:           models.SignalDrift,
		Action:         action,
		EventID:        q.EventID,
		EventName:      q.EventName,
		Sport:          q.Sport,
		Market:         q.Market,
		Selection:      q.Selection,
		BackPrice:      q.BackPrice,
		LayPrice:       q.LayPrice,
		DriftPercent:   change.DriftPercent,
		Confidence:     d.confidence(drift),
		Stake:          d.baseStake,
		Strategy:       strategy,
		QuoteTimestamp: q.Timestamp,
		DetectedAt:     time.Now().UTC(),
	}

	if action == models.ActionBack {
		sig.BackBookmaker = q.Bookmaker
		sig.PotentialProfit = oddsmath.BackProfit(d.baseStake, q.BackPrice)
		sig.MaxLiability = d.baseStake
	} else {
		sig.LayBookmaker = q.Bookmaker
		layPrice := q.LayPrice
		if layPrice.LessThanOrEqual(decimal.Zero) {
			// No lay market on this book; liability estimated at the back price.
			layPrice = q.BackPrice
		}
		sig.PotentialProfit = d.baseStake
		sig.MaxLiability = oddsmath.LayLiability(d.baseStake, layPrice)
	}

	return []models.Signal{sig}
}

// confidence grows with the size of the move relative to the threshold,
// from 0.60 at the threshold up to a 0.90 cap at three times it.
func (d *DriftDetector) confidence(drift decimal.Decimal) float64 {
	if d.minDriftPercent.LessThanOrEqual(decimal.Zero) {
		return 0.60
	}
	ratio := drift.Div(d.minDriftPercent).InexactFloat64()
	return math.Min(0.90, 0.60+0.10*(ratio-1))
}
