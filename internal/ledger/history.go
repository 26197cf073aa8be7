package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/sports-trading-agent/internal/models"
)

const createQuoteChangesTable = `
CREATE TABLE IF NOT EXISTS quote_changes (
	id BIGSERIAL PRIMARY KEY,
	quote_id UUID NOT NULL,
	event_id TEXT NOT NULL,
	event_name TEXT NOT NULL,
	sport TEXT NOT NULL,
	market TEXT NOT NULL,
	selection TEXT NOT NULL,
	bookmaker TEXT NOT NULL,
	source TEXT NOT NULL,
	back_price NUMERIC(12,4) NOT NULL,
	lay_price NUMERIC(12,4) NOT NULL,
	prev_back NUMERIC(12,4) NOT NULL,
	prev_lay NUMERIC(12,4) NOT NULL,
	back_delta NUMERIC(12,4) NOT NULL,
	drift_percent NUMERIC(12,4) NOT NULL,
	first_seen BOOLEAN NOT NULL,
	quote_timestamp TIMESTAMPTZ NOT NULL,
	changed_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_quote_changes_event ON quote_changes (event_id, changed_at DESC);`

const createSignalsTable = `
CREATE TABLE IF NOT EXISTS signals (
	id UUID PRIMARY KEY,
	kind TEXT NOT NULL,
	action TEXT NOT NULL,
	event_id TEXT NOT NULL,
	event_name TEXT NOT NULL,
	sport TEXT NOT NULL,
	market TEXT NOT NULL,
	selection TEXT NOT NULL,
	back_bookmaker TEXT NOT NULL DEFAULT '',
	lay_bookmaker TEXT NOT NULL DEFAULT '',
	back_price NUMERIC(12,4) NOT NULL,
	lay_price NUMERIC(12,4) NOT NULL,
	spread_percent NUMERIC(12,4) NOT NULL,
	arbitrage_margin NUMERIC(12,6) NOT NULL,
	drift_percent NUMERIC(12,4) NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	stake NUMERIC(14,2) NOT NULL,
	potential_profit NUMERIC(14,2) NOT NULL,
	max_liability NUMERIC(14,2) NOT NULL,
	strategy TEXT NOT NULL,
	quote_timestamp TIMESTAMPTZ NOT NULL,
	detected_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_signals_event ON signals (event_id, detected_at DESC);`

// HistoryStore persists quote changes and emitted signals to Postgres.
type HistoryStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewHistoryStore opens a Postgres connection and verifies it.
func NewHistoryStore(dsn string, logger zerolog.Logger) (*HistoryStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &HistoryStore{
		db:     db,
		logger: logger.With().Str("component", "history_store").Logger(),
	}, nil
}

// Migrate creates the history tables when they do not exist.
func (s *HistoryStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createQuoteChangesTable); err != nil {
		return fmt.Errorf("failed to create quote_changes table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, createSignalsTable); err != nil {
		return fmt.Errorf("failed to create signals table: %w", err)
	}
	s.logger.Info().Msg("history schema ready")
	return nil
}

// RecordChange appends a ledger change to the quote history.
func (s *HistoryStore) RecordChange(ctx context.Context, change *models.QuoteChange) error {
	q := change.Quote
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quote_changes (
			quote_id, event_id, event_name, sport, market, selection, bookmaker, source,
			back_price, lay_price, prev_back, prev_lay, back_delta, drift_percent,
			first_seen, quote_timestamp, changed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		q.ID, q.EventID, q.EventName, q.Sport, q.Market, q.Selection, q.Bookmaker, q.Source,
		q.BackPrice.String(), q.LayPrice.String(), change.PrevBack.String(), change.PrevLay.String(),
		change.BackDelta.String(), change.DriftPercent.String(),
		change.FirstSeen, q.Timestamp, change.ChangedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert quote change: %w", err)
	}
	return nil
}

// RecordSignal appends an emitted signal to the signal history.
func (s *HistoryStore) RecordSignal(ctx context.Context, sig *models.Signal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO signals (
			id, kind, action, event_id, event_name, sport, market, selection,
			back_bookmaker, lay_bookmaker, back_price, lay_price, spread_percent,
			arbitrage_margin, drift_percent, confidence, stake, potential_profit,
			max_liability, strategy, quote_timestamp, detected_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`,
		sig.ID, string(sig.Kind), string(sig.Action), sig.EventID, sig.EventName, sig.Sport,
		sig.Market, sig.Selection, sig.BackBookmaker, sig.LayBookmaker,
		sig.BackPrice.String(), sig.LayPrice.String(), sig.SpreadPercent.String(),
		sig.ArbitrageMargin.String(), sig.DriftPercent.String(), sig.Confidence,
		sig.Stake.String(), sig.PotentialProfit.String(), sig.MaxLiability.String(),
		sig.Strategy, sig.QuoteTimestamp, sig.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert signal: %w", err)
	}
	return nil
}

// RecentSignals returns the latest signals for an event, newest first.
func (s *HistoryStore) RecentSignals(ctx context.Context, eventID string, limit int) ([]models.Signal, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, action, event_id, event_name, sport, market, selection,
			back_bookmaker, lay_bookmaker, back_price, lay_price, spread_percent,
			arbitrage_margin, drift_percent, confidence, stake, potential_profit,
			max_liability, strategy, quote_timestamp, detected_at
		FROM signals
		WHERE event_id = $1
		ORDER BY detected_at DESC
		LIMIT $2`, eventID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	signals := make([]models.Signal, 0, limit)
	for rows.Next() {
		var (
			sig          models.Signal
			id           string
			kind, action string
			backPrice    string
			layPrice     string
			spread       string
			margin       string
			drift        string
			stake        string
			profit       string
			liability    string
		)
		if err := rows.Scan(
			&id, &kind, &action, &sig.EventID, &sig.EventName, &sig.Sport, &sig.Market,
			&sig.Selection, &sig.BackBookmaker, &sig.LayBookmaker, &backPrice, &layPrice,
			&spread, &margin, &drift, &sig.Confidence, &stake, &profit, &liability,
			&sig.Strategy, &sig.QuoteTimestamp, &sig.DetectedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}

		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("failed to parse signal id: %w", err)
		}
		sig.ID = parsed
		sig.Kind = models.SignalKind(kind)
		sig.Action = models.SignalAction(action)
		if sig.BackPrice, err = decimal.NewFromString(backPrice); err != nil {
			return nil, fmt.Errorf("failed to parse back price: %w", err)
		}
		if sig.LayPrice, err = decimal.NewFromString(layPrice); err != nil {
			return nil, fmt.Errorf("failed to parse lay price: %w", err)
		}
		if sig.SpreadPercent, err = decimal.NewFromString(spread); err != nil {
			return nil, fmt.Errorf("failed to parse spread: %w", err)
		}
		if sig.ArbitrageMargin, err = decimal.NewFromString(margin); err != nil {
			return nil, fmt.Errorf("failed to parse margin: %w", err)
		}
		if sig.DriftPercent, err = decimal.NewFromString(drift); err != nil {
			return nil, fmt.Errorf("failed to parse drift: %w", err)
		}
		if sig.Stake, err = decimal.NewFromString(stake); err != nil {
			return nil, fmt.Errorf("failed to parse stake: %w", err)
		}
		if sig.PotentialProfit, err = decimal.NewFromString(profit); err != nil {
			return nil, fmt.Errorf("failed to parse profit: %w", err)
		}
		if sig.MaxLiability, err = decimal.NewFromString(liability); err != nil {
			return nil, fmt.Errorf("failed to parse liability: %w", err)
		}

		signals = append(signals, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate signals: %w", err)
	}

	return signals, nil
}

// Close closes the database connection.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}
