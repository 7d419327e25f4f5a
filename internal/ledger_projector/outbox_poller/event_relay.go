package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/artho-wallet-ledger/internal/domain/outbox"
	"github.com/artho-wallet-ledger/internal/domain/shared"
	"github.com/artho-wallet-ledger/internal/platform/messaging/producers"
)

// EventRelay moves one outbox message onto the ledger events topic
type EventRelay interface {
	Relay(ctx context.Context, message *outbox.Message) error
}

// EventRelayImpl implements EventRelay
type EventRelayImpl struct {
	outboxRepo outbox.Repository
	publisher  producers.EventPublisher
	logger     *slog.Logger
}

func NewEventRelay(
	outboxRepo outbox.Repository,
	publisher producers.EventPublisher,
	logger *slog.Logger,
) EventRelay {
	return &EventRelayImpl{
		outboxRepo: outboxRepo,
		publisher:  publisher,
		logger:     logger,
	}
}

// Relay publishes the message keyed by transaction id, so every event of one
// transaction lands on the same partition, then marks it PROCESSED. A payload
// that cannot be decoded is marked FAILED_TO_PUBLISH at once.
func (r *EventRelayImpl) Relay(ctx context.Context, message *outbox.Message) error {
	event, err := message.LedgerEvent()
	if err != nil {
		r.logger.Error("Failed to decode ledger event from outbox payload",
			"outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err,
		)
		if updateErr := r.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			r.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after decode error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("decode payload for outbox %d failed: %w", message.ID, err)
	}

	logger := r.logger
	if event.CorrelationID != "" {
		logger = r.logger.With("correlation_id", event.CorrelationID)
	}

	key := message.TransactionID.String()
	if err := r.publisher.PublishWithType(ctx, key, string(message.EventType), message.Payload); err != nil {
		return fmt.Errorf("failed to publish %s event for tx %s: %w", message.EventType, message.TransactionID, err)
	}

	if err := r.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err,
		)
		// the event is already out; a second publish is absorbed by the projection's upsert
		return fmt.Errorf("event for %s published, but failed to mark outbox %d as PROCESSED: %w", message.TransactionID, message.ID, err)
	}

	logger.Info("Ledger event published",
		"outbox_id", message.ID,
		"transaction_id", message.TransactionID,
		"event_type", message.EventType,
	)
	return nil
}
