package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/artho-wallet-ledger/internal/domain/shared"
	"github.com/artho-wallet-ledger/internal/ledger_projector/service"
	"github.com/artho-wallet-ledger/internal/platform/messaging/producers"
	"github.com/google/uuid"
)

// LedgerEventHandler projects ledger events consumed from Kafka
type LedgerEventHandler struct {
	projectionService service.ProjectionService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

func NewLedgerEventHandler(
	logger *slog.Logger,
	projectionService service.ProjectionService,
	producer producers.DeadLetterPublisher,
) *LedgerEventHandler {
	return &LedgerEventHandler{
		projectionService: projectionService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage returns nil when the offset may be committed. Poison messages
// go to the DLQ; transient projection failures are returned so the consumer retries them.
func (h *LedgerEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event shared.LedgerEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return h.deadLetter(ctx, key, value, "Failed to unmarshal ledger event from Kafka message", err)
	}
	if event.TransactionID == uuid.Nil || event.EventType == "" {
		return h.deadLetter(ctx, key, value, "Ledger event is missing its identity", errors.New("transaction_id and event_type are required"))
	}

	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Debug("Received ledger event",
		"transaction_id", event.TransactionID.String(),
		"event_type", event.EventType,
		"postings", len(event.Postings),
	)

	if err := h.projectionService.Project(ctx, &event); err != nil {
		if errors.Is(err, service.ErrUnprojectable) {
			return h.deadLetter(ctx, key, value, "Ledger event cannot be projected", err)
		}
		logger.Error("Failed to project ledger event",
			"transaction_id", event.TransactionID.String(),
			"error", err,
		)
		return fmt.Errorf("projecting tx %s failed: %w", event.TransactionID, err)
	}
	return nil
}

func (h *LedgerEventHandler) deadLetter(ctx context.Context, key, value []byte, reason string, cause error) error {
	h.logger.Error(reason, "error", cause, "message_key", string(key))

	if h.producer != nil {
		dlqReason := fmt.Sprintf("%s: %s", reason, cause.Error())
		if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
			h.logger.Error("Failed to publish message to DLQ",
				"dlq_error", dlqErr,
				"original_error", cause,
				"message_key", string(key),
			)
		} else {
			h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
			return nil
		}
	}
	return fmt.Errorf("unprocessable ledger event: %w", cause)
}
