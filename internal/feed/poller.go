// Package feed schedules odds and fixture collection from the configured
// providers and hands normalized quotes to the processing pipeline.
package feed

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/sports-trading-agent/internal/feed/theoddsapi"
	"github.com/cypherlabdev/sports-trading-agent/internal/ledger"
	"github.com/cypherlabdev/sports-trading-agent/internal/models"
)

// Pipeline ingests a batch of normalized quotes.
type Pipeline interface {
	ProcessQuotes(ctx context.Context, quotes []models.OddsQuote, source string) error
}

// OddsProvider fetches Back/Lay quotes for one sport.
type OddsProvider interface {
	Name() string
	FetchOdds(ctx context.Context, sport string) ([]models.OddsQuote, []models.Event, error)
}

// FixtureProvider fetches fixtures without odds.
type FixtureProvider interface {
	Name() string
	LiveMatches(ctx context.Context) ([]models.Event, error)
	MatchesByDate(ctx context.Context, day time.Time) ([]models.Event, error)
}

// Poller runs the collection loop. Capture can be paused at runtime; a
// paused poller skips provider calls but the rest of the agent stays live.
type Poller struct {
	pipeline Pipeline
	odds     OddsProvider
	fixtures FixtureProvider // nil when API-Futebol is not configured
	events   *ledger.EventIndex
	sports   []string
	interval time.Duration
	paused   atomic.Bool
	logger   zerolog.Logger
}

// NewPoller creates a poller. fixtures may be nil.
func NewPoller(
	pipeline Pipeline,
	odds OddsProvider,
	fixtures FixtureProvider,
	events *ledger.EventIndex,
	sports []string,
	interval time.Duration,
	logger zerolog.Logger,
) *Poller {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Poller{
		pipeline: pipeline,
		odds:     odds,
		fixtures: fixtures,
		events:   events,
		sports:   sports,
		interval: interval,
		logger:   logger.With().Str("component", "poller").Logger(),
	}
}

// StartCapture resumes polling. Returns false if capture was already active.
func (p *Poller) StartCapture() bool {
	return p.paused.CompareAndSwap(true, false)
}

// StopCapture pauses polling. Returns false if capture was already paused.
func (p *Poller) StopCapture() bool {
	return p.paused.CompareAndSwap(false, true)
}

// CaptureActive reports whether the poller is currently collecting.
func (p *Poller) CaptureActive() bool {
	return !p.paused.Load()
}

// Run polls until the context is cancelled. The first cycle fires
// immediately.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info().
		Dur("interval", p.interval).
		Strs("sports", p.sports).
		Msg("poller started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("poller stopped")
			return
		case <-ticker.C:
			p.cycle(ctx)
		}
	}
}

func (p *Poller) cycle(ctx context.Context) {
	if !p.CaptureActive() {
		p.logger.Debug().Msg("capture paused, skipping cycle")
		return
	}

	p.collectFixtures(ctx)

	for _, sport := range p.sports {
		quotes, fixtures, err := p.odds.FetchOdds(ctx, sport)
		if err != nil {
			if errors.Is(err, theoddsapi.ErrBudgetExhausted) {
				p.logger.Warn().Str("sport", sport).Msg("request budget exhausted, skipping remaining sports")
				return
			}
			p.logger.Error().Err(err).Str("sport", sport).Msg("failed to fetch odds")
			continue
		}

		p.events.UpsertBatch(fixtures)

		if len(quotes) == 0 {
			continue
		}
		if err := p.pipeline.ProcessQuotes(ctx, quotes, p.odds.Name()); err != nil {
			p.logger.Error().Err(err).Str("sport", sport).Msg("failed to process quotes")
		}
	}
}

func (p *Poller) collectFixtures(ctx context.Context) {
	if p.fixtures == nil {
		return
	}

	live, err := p.fixtures.LiveMatches(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Msg("failed to fetch live fixtures")
	} else {
		p.events.UpsertBatch(live)
	}

	today, err := p.fixtures.MatchesByDate(ctx, time.Now().UTC())
	if err != nil {
		p.logger.Warn().Err(err).Msg("failed to fetch today's fixtures")
		return
	}
	p.events.UpsertBatch(today)
}
