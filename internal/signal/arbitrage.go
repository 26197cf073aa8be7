package signal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/sports-trading-agent/internal/models"
	"github.com/cypherlabdev/sports-trading-agent/pkg/oddsmath"
)

// ArbitrageDetector looks for a best back price below a best lay price across
// bookmakers where backing and laying together lock in a profit.
type ArbitrageDetector struct {
	minSpread decimal.Decimal // minimum lay-over-back difference, fraction of back price
	baseStake decimal.Decimal
}

// NewArbitrageDetector creates the detector. minSpread is a fraction
// (0.05 = 5%); baseStake sizes the recommended back bet.
func NewArbitrageDetector(minSpread, baseStake decimal.Decimal) *ArbitrageDetector {
	return &ArbitrageDetector{minSpread: minSpread, baseStake: baseStake}
}

// Kind implements Detector.
func (d *ArbitrageDetector) Kind() models.SignalKind { return models.SignalArbitrage }

// Enabled implements Detector. Arbitrage detection is always on.
func (d *ArbitrageDetector) Enabled() bool { return true }

// Detect implements Detector.
func (d *ArbitrageDetector) Detect(change *models.QuoteChange, market []models.OddsQuote) []models.Signal {
	bestBack, bestLay, ok := bestPrices(change.Quote, market)
	if !ok {
		return nil
	}

	back := bestBack.BackPrice
	lay := bestLay.LayPrice

	// Back must sit below lay by the configured minimum difference.
	if back.GreaterThanOrEqual(lay) {
		return nil
	}
	diff := lay.Sub(back).Div(back)
	if diff.LessThan(d.minSpread) {
		return nil
	}

	margin, isArb := oddsmath.ArbitrageMargin(back, lay)
	if !isArb {
		return nil
	}

	// Lay stake balanced against the back stake so both outcomes green up.
	layStake := d.baseStake.Mul(back).Div(lay)
	layLiability := oddsmath.LayLiability(layStake, lay)

	q := change.Quote
	return []models.Signal{{
		ID:              uuid.New(),
		Kind:            models.SignalArbitrage,
		Action:          models.ActionBackAndLay,
		EventID:         q.EventID,
		EventName:       q.EventName,
		Sport:           q.Sport,
		Market:          q.Market,
		Selection:       q.Selection,
		BackBookmaker:   bestBack.Bookmaker,
		LayBookmaker:    bestLay.Bookmaker,
		BackPrice:       back,
		LayPrice:        lay,
		SpreadPercent:   oddsmath.SpreadPercent(back, lay),
		ArbitrageMargin: margin,
		Confidence:      0.95,
		Stake:           d.baseStake,
		PotentialProfit: d.baseStake.Mul(margin),
		MaxLiability:    layLiability,
		Strategy:        "arbitrage",
		QuoteTimestamp:  q.Timestamp,
		DetectedAt:      time.Now().UTC(),
	}}
}

// bestPrices returns the quote with the highest back price and the quote with
// the lowest non-zero lay price for the selection, folding in the changed
// quote in case the market snapshot predates it.
func bestPrices(current models.OddsQuote, market []models.OddsQuote) (bestBack, bestLay models.OddsQuote, ok bool) {
	quotes := make([]models.OddsQuote, 0, len(market)+1)
	quotes = append(quotes, current)
	for _, q := range market {
		if q.Bookmaker != current.Bookmaker {
			quotes = append(quotes, q)
		}
	}

	haveLay := false
	for _, q := range quotes {
		if q.BackPrice.GreaterThan(bestBack.BackPrice) {
			bestBack = q
		}
		if q.LayPrice.GreaterThan(decimal.Zero) {
			if !haveLay || q.LayPrice.LessThan(bestLay.LayPrice) {
				bestLay = q
				haveLay = true
			}
		}
	}

	if !haveLay || bestBack.BackPrice.LessThanOrEqual(decimal.Zero) {
		return models.OddsQuote{}, models.OddsQuote{}, false
	}
	return bestBack, bestLay, true
}
