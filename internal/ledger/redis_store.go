package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/sports-trading-agent/internal/models"
)

// ErrQuoteNotFound is returned when a quote is absent from the hot store.
var ErrQuoteNotFound = errors.New("quote not found in store")

// RedisStore keeps the latest quote per ledger key in Redis so the API and
// other processes can read current odds without touching the in-memory book.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// RedisStoreConfig holds Redis store configuration
type RedisStoreConfig struct {
	Addr     string // e.g., "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration // e.g., 15 * time.Minute
}

// NewRedisStore creates a new Redis quote store
func NewRedisStore(config RedisStoreConfig, logger zerolog.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisStore{
		client: client,
		ttl:    config.TTL,
		logger: logger.With().Str("component", "redis_store").Logger(),
	}
}

func quoteKey(eventID, market, selection, bookmaker string) string {
	return fmt.Sprintf("quote:%s:%s:%s:%s", eventID, market, selection, bookmaker)
}

// Set stores the latest quote for its ledger key
func (s *RedisStore) Set(ctx context.Context, quote *models.OddsQuote) error {
	key := quoteKey(quote.EventID, quote.Market, quote.Selection, quote.Bookmaker)

	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}

	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in Redis: %w", err)
	}

	s.logger.Debug().
		Str("key", key).
		Dur("ttl", s.ttl).
		Msg("stored quote")

	return nil
}

// Get retrieves the latest quote for a ledger key
func (s *RedisStore) Get(ctx context.Context, eventID, market, selection, bookmaker string) (*models.OddsQuote, error) {
	key := quoteKey(eventID, market, selection, bookmaker)

	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrQuoteNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get from Redis: %w", err)
	}

	var quote models.OddsQuote
	if err := json.Unmarshal(data, &quote); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quote: %w", err)
	}

	return &quote, nil
}

// SetBatch stores multiple quotes in one pipeline
func (s *RedisStore) SetBatch(ctx context.Context, quotes []*models.OddsQuote) error {
	if len(quotes) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()

	for _, quote := range quotes {
		key := quoteKey(quote.EventID, quote.Market, quote.Selection, quote.Bookmaker)
		data, err := json.Marshal(quote)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to marshal quote")
			continue
		}
		pipe.Set(ctx, key, data, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute pipeline: %w", err)
	}

	s.logger.Debug().
		Int("count", len(quotes)).
		Msg("stored batch of quotes")

	return nil
}

// GetByEvent retrieves all stored quotes for an event
func (s *RedisStore) GetByEvent(ctx context.Context, eventID string) ([]*models.OddsQuote, error) {
	pattern := fmt.Sprintf("quote:%s:*", eventID)

	var cursor uint64
	var keys []string

	for {
		var scanKeys []string
		var err error
		scanKeys, cursor, err = s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}

		keys = append(keys, scanKeys...)

		if cursor == 0 {
			break
		}
	}

	quotes := make([]*models.OddsQuote, 0, len(keys))
	for _, key := range keys {
		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to get key")
			continue
		}

		var quote models.OddsQuote
		if err := json.Unmarshal(data, &quote); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to unmarshal quote")
			continue
		}

		quotes = append(quotes, &quote)
	}

	return quotes, nil
}

// Ping checks Redis connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
