package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/cypherlabdev/sports-trading-agent/internal/models"
	"github.com/cypherlabdev/sports-trading-agent/internal/service"
)

// KafkaConsumer consumes quote batches from out-of-process collectors and
// feeds them into the pipeline. Scraped sources without an in-process client
// publish their normalized quotes to this topic.
type KafkaConsumer struct {
	reader   *kafka.Reader
	pipeline service.Pipeline
	logger   zerolog.Logger
}

// KafkaConsumerConfig holds Kafka consumer configuration
type KafkaConsumerConfig struct {
	Brokers []string // e.g., ["localhost:9092"]
	Topic   string   // e.g., "raw_quotes"
	GroupID string   // e.g., "trading-agent"
}

// NewKafkaConsumer creates a new Kafka consumer
func NewKafkaConsumer(
	config KafkaConsumerConfig,
	pipeline service.Pipeline,
	logger zerolog.Logger,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.GroupID,
		MinBytes:       1e3,  // 1KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})

	return &KafkaConsumer{
		reader:   reader,
		pipeline: pipeline,
		logger:   logger.With().Str("component", "kafka_consumer").Logger(),
	}
}

// Start begins consuming messages from Kafka
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info().
		Str("topic", c.reader.Config().Topic).
		Str("group_id", c.reader.Config().GroupID).
		Msg("started consuming from Kafka")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("stopping Kafka consumer")
			return c.reader.Close()

		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if err == context.Canceled {
					return nil
				}
				c.logger.Error().Err(err).Msg("failed to fetch message")
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				c.logger.Error().
					Err(err).
					Int64("offset", msg.Offset).
					Str("key", string(msg.Key)).
					Msg("failed to process message")
				// Don't commit if processing failed
				continue
			}

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				c.logger.Error().Err(err).Msg("failed to commit message")
			}
		}
	}
}

// processMessage parses a quote batch and hands it to the pipeline
func (c *KafkaConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var batch models.QuoteBatchMessage
	if err := json.Unmarshal(msg.Value, &batch); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	source := batch.Source
	if source == "" {
		source = "kafka"
	}

	c.logger.Debug().
		Int("quote_count", len(batch.Quotes)).
		Str("source", source).
		Str("batch_id", batch.BatchID).
		Msg("processing quote batch")

	if err := c.pipeline.ProcessQuotes(ctx, batch.Quotes, source); err != nil {
		return fmt.Errorf("failed to process quotes: %w", err)
	}

	return nil
}

// Close closes the Kafka reader
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
