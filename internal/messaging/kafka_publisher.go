package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/cypherlabdev/sports-trading-agent/internal/models"
)

// KafkaPublisher publishes emitted signals to the outbound topic so other
// services (bots, dashboards) can consume them.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// KafkaPublisherConfig holds Kafka publisher configuration
type KafkaPublisherConfig struct {
	Brokers []string // e.g., ["localhost:9092"]
	Topic   string   // e.g., "signals"
}

// NewKafkaPublisher creates a new Kafka publisher
func NewKafkaPublisher(config KafkaPublisherConfig, logger zerolog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}

	return &KafkaPublisher{
		writer: writer,
		logger: logger.With().Str("component", "kafka_publisher").Logger(),
	}
}

// Publish writes one signal to the topic, keyed by event so signals for the
// same fixture stay ordered within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, sig models.Signal) error {
	msg := models.SignalMessage{
		Signal:      sig,
		PublishedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal signal: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(sig.EventID),
		Value: data,
	}); err != nil {
		return fmt.Errorf("failed to write signal: %w", err)
	}

	p.logger.Debug().
		Str("signal_id", sig.ID.String()).
		Str("event_id", sig.EventID).
		Msg("published signal")

	return nil
}

// Close closes the Kafka writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
