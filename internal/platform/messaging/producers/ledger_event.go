package producers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/artho-wallet-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// EventTypeHeader carries the ledger event type so consumers can route without decoding
const EventTypeHeader = "event-type"

// LedgerEventProducer writes outbox payloads to the ledger events topic.
// Writes are synchronous: the outbox poller only marks a message processed
// once the broker acknowledged it.
type LedgerEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

func NewLedgerEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*LedgerEventProducer, error) {
	if cfg.LedgerEventsTopic == "" {
		return nil, fmt.Errorf("kafka ledger events topic is not configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for ledger event producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.LedgerEventsTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure ledger events topic %s exists: %w", cfg.LedgerEventsTopic, err)
	}

	writer := &kafka.Writer{
		Addr:  kafka.TCP(cfg.Brokers),
		Topic: cfg.LedgerEventsTopic,
		// Hash keeps every event of one transaction on the same partition
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return newLedgerEventProducer(logger, writer, cfg.LedgerEventsTopic), nil
}

func newLedgerEventProducer(logger *slog.Logger, writer KafkaWriter, topic string) *LedgerEventProducer {
	return &LedgerEventProducer{
		logger: logger,
		writer: writer,
		topic:  topic,
	}
}

// Publish writes payload keyed by transaction id
func (p *LedgerEventProducer) Publish(ctx context.Context, key string, payload []byte) error {
	return p.PublishWithType(ctx, key, "", payload)
}

// PublishWithType is Publish plus an event-type header when eventType is set
func (p *LedgerEventProducer) PublishWithType(ctx context.Context, key, eventType string, payload []byte) error {
	if len(payload) == 0 {
		return fmt.Errorf("refusing to publish empty payload for key %s", key)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
	}
	if eventType != "" {
		msg.Headers = []kafka.Header{{Key: EventTypeHeader, Value: []byte(eventType)}}
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish ledger event",
			"topic", p.topic,
			"key", key,
			"event_type", eventType,
			"error", err,
		)
		return fmt.Errorf("failed to publish ledger event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published ledger event",
		"topic", p.topic,
		"key", key,
		"event_type", eventType,
	)
	return nil
}

func (p *LedgerEventProducer) Close() error {
	p.logger.Info("Closing ledger event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close ledger event writer for topic %s: %w", p.topic, err)
	}
	return nil
}
