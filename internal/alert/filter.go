package alert

import (
	"time"

	"github.com/cypherlabdev/sports-trading-agent/internal/models"
)

// Filter drops signals that are not worth alerting on: low confidence or
// built on quotes that have gone stale.
type Filter struct {
	minConfidence float64
	maxQuoteAge   time.Duration
	now           func() time.Time
}

// NewFilter creates a filter. maxQuoteAge <= 0 disables the age check.
func NewFilter(minConfidence float64, maxQuoteAge time.Duration) *Filter {
	return &Filter{
		minConfidence: minConfidence,
		maxQuoteAge:   maxQuoteAge,
		now:           time.Now,
	}
}

// Allow reports whether the signal qualifies for dispatch.
func (f *Filter) Allow(sig models.Signal) bool {
	if sig.Confidence < f.minConfidence {
		return false
	}
	if f.maxQuoteAge > 0 && !sig.QuoteTimestamp.IsZero() {
		if f.now().Sub(sig.QuoteTimestamp) > f.maxQuoteAge {
			return false
		}
	}
	return true
}
