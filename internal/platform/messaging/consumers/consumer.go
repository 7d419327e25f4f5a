package consumers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/artho-wallet-ledger/internal/config"
	"github.com/artho-wallet-ledger/internal/platform/messaging/producers"
	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
)

type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer defines the message queue consumer interface
type Consumer interface {
	Subscribe(ctx context.Context, topic string, groupID string, handler MessageHandler) error
	Close() error
}

// KafkaReader is the subset of *kafka.Reader the consumer loop needs
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer implements Consumer on top of a consumer-group reader.
// A message whose handler keeps failing is retried in place and blocks its
// partition; it is committed only once handled or parked on the DLQ.
type KafkaConsumer struct {
	reader      KafkaReader
	logger      *slog.Logger
	deadLetters producers.DeadLetterPublisher
	retryDelay  time.Duration
	maxRetries  int
	newBackOff  func() backoff.BackOff
	done        chan struct{}
}

// NewKafkaConsumer builds a group reader. deadLetters may be nil, in which case
// an exhausted message is retried until it succeeds or the context ends.
func NewKafkaConsumer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig, deadLetters producers.DeadLetterPublisher) *KafkaConsumer {
	startOffset := cfg.StartOffset
	if startOffset == 0 {
		startOffset = kafka.FirstOffset
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     []string{cfg.Brokers},
		Topic:       cfg.LedgerEventsTopic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
		MaxWait:     cfg.MaxWait,
		StartOffset: startOffset,
	})
	c := newKafkaConsumer(logger, reader, deadLetters)
	c.maxRetries = cfg.HandlerMaxRetries
	if cfg.HandlerRetryDelay > 0 {
		c.retryDelay = cfg.HandlerRetryDelay
	}
	return c
}

func newKafkaConsumer(logger *slog.Logger, reader KafkaReader, deadLetters producers.DeadLetterPublisher) *KafkaConsumer {
	c := &KafkaConsumer{
		reader:      reader,
		logger:      logger,
		deadLetters: deadLetters,
		retryDelay:  time.Second,
		maxRetries:  5,
		done:        make(chan struct{}),
	}
	c.newBackOff = c.exponentialBackOff
	return c
}

func (c *KafkaConsumer) exponentialBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0.5
	b.MaxInterval = 16 * c.retryDelay
	b.MaxElapsedTime = 0
	return b
}

// Subscribe starts the fetch loop in the background. Offsets are committed
// only after the handler succeeds or the message is parked on the DLQ.
func (c *KafkaConsumer) Subscribe(ctx context.Context, topic string, groupID string, handler MessageHandler) error {
	log := c.logger.With("topic", topic, "group_id", groupID)
	log.Info("Subscribed to Kafka topic")

	go func() {
		defer close(c.done)
		for {
			if ctx.Err() != nil {
				log.Info("Context canceled, stopping consumer")
				return
			}

			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					log.Info("Context canceled, stopping consumer")
					return
				}
				log.Error("Failed to fetch message from Kafka", "error", err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(c.retryDelay):
				}
				continue
			}

			msgLog := log.With("partition", msg.Partition, "offset", msg.Offset, "key", string(msg.Key))
			msgLog.Debug("Received message from Kafka")

			if !c.resolve(ctx, msgLog, msg, handler) {
				log.Info("Context canceled before message was resolved, offset left uncommitted")
				return
			}

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				msgLog.Error("Failed to commit message after successful processing", "error", err)
				continue
			}
			msgLog.Debug("Message committed")
		}
	}()

	return nil
}

// resolve runs the handler with backoff until it succeeds. After maxRetries
// failed retries the message is parked on the DLQ; without a DLQ, or when the
// DLQ write fails, a new round of retries starts. It returns false only when
// ctx ends first.
func (c *KafkaConsumer) resolve(ctx context.Context, log *slog.Logger, msg kafka.Message, handler MessageHandler) bool {
	for {
		attempts := 0
		operation := func() error {
			attempts++
			return handler(ctx, msg.Key, msg.Value)
		}
		notify := func(err error, wait time.Duration) {
			log.Warn("Failed to process message, retrying", "attempt", attempts, "retry_in", wait, "error", err)
		}
		policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(c.maxRetries)), ctx)

		err := backoff.RetryNotify(operation, policy, notify)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}

		if c.deadLetters != nil {
			reason := fmt.Sprintf("handler_failed after %d attempts: %s", attempts, err.Error())
			dlqErr := c.deadLetters.PublishToDLQ(ctx, string(msg.Key), msg.Value, reason)
			if dlqErr == nil {
				log.Error("Parked message on DLQ after exhausting retries", "attempts", attempts, "error", err)
				return true
			}
			log.Error("Failed to park message on DLQ", "dlq_error", dlqErr, "error", err)
		}

		log.Error("Message still failing, holding its offset", "attempts", attempts, "error", err)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.retryDelay):
		}
	}
}

// Done is closed when the fetch loop exits
func (c *KafkaConsumer) Done() <-chan struct{} {
	return c.done
}

func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
