// Package oddsmath converts between decimal odds, American odds and implied
// probabilities, and computes exchange profit, liability and arbitrage margin.
// All prices are shopspring decimals; float arithmetic never touches a price.
package oddsmath

import (
	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)

	// Implied back+lay probabilities must sum below this for the pair to
	// count as arbitrage, leaving headroom for quoting error.
	arbitrageThreshold = decimal.NewFromFloat(0.98)
)

// ImpliedProbability converts decimal odds to implied probability.
// Example: 2.50 odds = 1/2.50 = 0.40.
func ImpliedProbability(odds decimal.Decimal) decimal.Decimal {
	if odds.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return one.Div(odds)
}

// ProbabilityToOdds converts implied probability to decimal odds.
// Probabilities outside (0, 1) collapse to odds of 1.
func ProbabilityToOdds(prob decimal.Decimal) decimal.Decimal {
	if prob.LessThanOrEqual(decimal.Zero) || prob.GreaterThanOrEqual(one) {
		return one
	}
	return one.Div(prob)
}

// AmericanToDecimal converts American odds to decimal odds.
// +150 -> 2.50, -200 -> 1.50. Zero input yields odds of 1.
func AmericanToDecimal(american int64) decimal.Decimal {
	if american == 0 {
		return one
	}
	a := decimal.NewFromInt(american)
	if american > 0 {
		return a.Div(hundred).Add(one)
	}
	return hundred.Div(a.Abs()).Add(one)
}

// BackProfit is the profit of a winning back bet: stake * (odds - 1).
func BackProfit(stake, odds decimal.Decimal) decimal.Decimal {
	return stake.Mul(odds.Sub(one))
}

// LayLiability is the amount at risk on a lay bet: stake * (odds - 1).
func LayLiability(stake, odds decimal.Decimal) decimal.Decimal {
	return stake.Mul(odds.Sub(one))
}

// SpreadPercent is the lay-over-back difference relative to the back price,
// in percent. Non-positive back prices yield zero.
func SpreadPercent(back, lay decimal.Decimal) decimal.Decimal {
	if back.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return lay.Sub(back).Div(back).Mul(hundred)
}

// ArbitrageMargin reports whether backing at back odds and laying at lay odds
// locks in a profit, and the margin as a fraction of stake. The pair counts
// as arbitrage when the implied probabilities sum below 0.98.
func ArbitrageMargin(back, lay decimal.Decimal) (decimal.Decimal, bool) {
	total := ImpliedProbability(back).Add(ImpliedProbability(lay))
	if total.IsZero() || total.GreaterThanOrEqual(arbitrageThreshold) {
		return decimal.Zero, false
	}
	return one.Sub(total), true
}

// Overround is the bookmaker margin of a full market: the sum of implied
// probabilities minus 1. Fair markets have an overround of zero.
func Overround(odds []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, o := range odds {
		total = total.Add(ImpliedProbability(o))
	}
	return total.Sub(one)
}
