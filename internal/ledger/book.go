// Package ledger maintains the current and historical odds state per
// (event, market, selection, bookmaker) and detects price movements.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/sports-trading-agent/internal/metrics"
	"github.com/cypherlabdev/sports-trading-agent/internal/models"
)

var one = decimal.NewFromInt(1)

type entry struct {
	quote     models.OddsQuote
	updatedAt time.Time
}

// Book holds the current quote per ledger key and reports changes.
type Book struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	staleAfter time.Duration
	logger     zerolog.Logger
}

// NewBook creates an empty ledger book. Entries untouched for longer than
// staleAfter are dropped by Sweep.
func NewBook(staleAfter time.Duration, logger zerolog.Logger) *Book {
	return &Book{
		entries:    make(map[string]*entry),
		staleAfter: staleAfter,
		logger:     logger.With().Str("component", "ledger_book").Logger(),
	}
}

// Apply folds a quote into the book. It returns a QuoteChange when the quote
// is new or moves a price, and nil when prices are unchanged. Quotes with a
// back price at or below 1 are rejected.
func (b *Book) Apply(quote models.OddsQuote) (*models.QuoteChange, error) {
	if quote.BackPrice.LessThanOrEqual(one) {
		return nil, fmt.Errorf("invalid back price: %s", quote.BackPrice.String())
	}
	if quote.LayPrice.LessThan(decimal.Zero) {
		return nil, fmt.Errorf("invalid lay price: %s", quote.LayPrice.String())
	}

	now := time.Now().UTC()
	key := quote.Key()

	b.mu.Lock()
	defer b.mu.Unlock()

	prev, ok := b.entries[key]
	if !ok {
		b.entries[key] = &entry{quote: quote, updatedAt: now}
		metrics.LedgerEntries.Set(float64(len(b.entries)))
		return &models.QuoteChange{
			Quote:     quote,
			FirstSeen: true,
			ChangedAt: now,
		}, nil
	}

	// Decimal equality, never float comparison.
	if prev.quote.BackPrice.Equal(quote.BackPrice) && prev.quote.LayPrice.Equal(quote.LayPrice) {
		prev.quote.Timestamp = quote.Timestamp
		prev.updatedAt = now
		return nil, nil
	}

	change := &models.QuoteChange{
		Quote:     quote,
		PrevBack:  prev.quote.BackPrice,
		PrevLay:   prev.quote.LayPrice,
		BackDelta: quote.BackPrice.Sub(prev.quote.BackPrice),
		ChangedAt: now,
	}
	change.DriftPercent = change.BackDelta.Div(prev.quote.BackPrice).Mul(decimal.NewFromInt(100))

	b.entries[key] = &entry{quote: quote, updatedAt: now}

	b.logger.Debug().
		Str("key", key).
		Str("prev_back", change.PrevBack.String()).
		Str("back", quote.BackPrice.String()).
		Str("drift_percent", change.DriftPercent.String()).
		Msg("quote moved")

	return change, nil
}

// Get returns the current quote for a ledger key.
func (b *Book) Get(key string) (models.OddsQuote, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.entries[key]
	if !ok {
		return models.OddsQuote{}, false
	}
	return e.quote, true
}

// EventQuotes returns all current quotes for an event.
func (b *Book) EventQuotes(eventID string) []models.OddsQuote {
	b.mu.RLock()
	defer b.mu.RUnlock()

	quotes := make([]models.OddsQuote, 0)
	for _, e := range b.entries {
		if e.quote.EventID == eventID {
			quotes = append(quotes, e.quote)
		}
	}
	return quotes
}

// SelectionQuotes returns the current quotes from every bookmaker for one
// selection of one market, the working set for cross-book detectors.
func (b *Book) SelectionQuotes(eventID, market, selection string) []models.OddsQuote {
	b.mu.RLock()
	defer b.mu.RUnlock()

	quotes := make([]models.OddsQuote, 0)
	for _, e := range b.entries {
		q := e.quote
		if q.EventID == eventID && q.Market == market && q.Selection == selection {
			quotes = append(quotes, q)
		}
	}
	return quotes
}

// Len returns the number of entries currently held.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Sweep drops entries not updated within the staleness window and returns
// the number removed.
func (b *Book) Sweep(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for key, e := range b.entries {
		if now.Sub(e.updatedAt) > b.staleAfter {
			delete(b.entries, key)
			removed++
		}
	}
	if removed > 0 {
		metrics.LedgerEntries.Set(float64(len(b.entries)))
		b.logger.Info().Int("removed", removed).Int("remaining", len(b.entries)).Msg("swept stale quotes")
	}
	return removed
}
