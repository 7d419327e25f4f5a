package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// EventPublisher publishes already-serialized ledger events to the primary topic
type EventPublisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
	// PublishWithType also sets the event-type header consumers route on
	PublishWithType(ctx context.Context, key, eventType string, payload []byte) error
	Close() error
}

// DeadLetterPublisher handles publishing messages to a Dead Letter Queue
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
