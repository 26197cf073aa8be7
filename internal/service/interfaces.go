package service

import (
	"context"

	"github.com/cypherlabdev/sports-trading-agent/internal/models"
)

// QuoteStore abstracts the hot quote store so it can be mocked in tests.
type QuoteStore interface {
	Set(ctx context.Context, quote *models.OddsQuote) error
	Get(ctx context.Context, eventID, market, selection, bookmaker string) (*models.OddsQuote, error)
	SetBatch(ctx context.Context, quotes []*models.OddsQuote) error
	GetByEvent(ctx context.Context, eventID string) ([]*models.OddsQuote, error)
	Ping(ctx context.Context) error
	Close() error
}

// History persists quote changes and signals for later analysis.
type History interface {
	RecordChange(ctx context.Context, change *models.QuoteChange) error
	RecordSignal(ctx context.Context, sig *models.Signal) error
	RecentSignals(ctx context.Context, eventID string, limit int) ([]models.Signal, error)
}

// Dispatcher delivers qualifying signals to notification channels.
type Dispatcher interface {
	Dispatch(ctx context.Context, sig models.Signal) error
}

// Publisher publishes emitted signals to the outbound topic.
type Publisher interface {
	Publish(ctx context.Context, sig models.Signal) error
}

// Pipeline ingests batches of normalized quotes from any feed source.
type Pipeline interface {
	ProcessQuotes(ctx context.Context, quotes []models.OddsQuote, source string) error
}
