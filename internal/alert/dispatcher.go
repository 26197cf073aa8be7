// Package alert delivers qualifying signals to notification channels. The
// chain is filter, dedup, rate limit, then fan-out to every notifier.
package alert

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/cypherlabdev/sports-trading-agent/internal/metrics"
	"github.com/cypherlabdev/sports-trading-agent/internal/models"
)

// Notifier delivers a formatted alert to one channel.
type Notifier interface {
	Name() string
	Send(ctx context.Context, sig models.Signal) error
}

// Dispatcher runs the alert chain.
type Dispatcher struct {
	filter    *Filter
	dedup     *Deduper // nil disables deduplication
	limiter   *rate.Limiter
	notifiers []Notifier
	logger    zerolog.Logger
}

// NewDispatcher creates a dispatcher. dedup may be nil; maxPerMinute <= 0
// disables rate limiting.
func NewDispatcher(
	filter *Filter,
	dedup *Deduper,
	maxPerMinute int,
	notifiers []Notifier,
	logger zerolog.Logger,
) *Dispatcher {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if maxPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(maxPerMinute)/60.0), maxPerMinute)
	}

	return &Dispatcher{
		filter:    filter,
		dedup:     dedup,
		limiter:   limiter,
		notifiers: notifiers,
		logger:    logger.With().Str("component", "alert_dispatcher").Logger(),
	}
}

// Dispatch pushes one signal through the chain. Suppression is not an
// error; notifier failures are logged per channel and the first one is
// returned.
func (d *Dispatcher) Dispatch(ctx context.Context, sig models.Signal) error {
	if !d.filter.Allow(sig) {
		metrics.AlertsSuppressed.WithLabelValues("filtered").Inc()
		d.logger.Debug().Str("signal_id", sig.ID.String()).Msg("alert filtered")
		return nil
	}

	if d.dedup != nil {
		first, err := d.dedup.FirstSeen(ctx, sig)
		if err != nil {
			// Fail open so a Redis outage doesn't silence alerts.
			d.logger.Warn().Err(err).Msg("dedup unavailable, sending anyway")
		} else if !first {
			metrics.AlertsSuppressed.WithLabelValues("duplicate").Inc()
			d.logger.Debug().Str("signal_id", sig.ID.String()).Msg("duplicate alert suppressed")
			return nil
		}
	}

	if !d.limiter.Allow() {
		metrics.AlertsSuppressed.WithLabelValues("rate_limited").Inc()
		d.logger.Warn().Str("signal_id", sig.ID.String()).Msg("alert rate limited")
		return nil
	}

	var firstErr error
	for _, n := range d.notifiers {
		if err := n.Send(ctx, sig); err != nil {
			d.logger.Error().Err(err).Str("notifier", n.Name()).Msg("failed to send alert")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		metrics.AlertsSent.WithLabelValues(n.Name()).Inc()
	}
	return firstErr
}
