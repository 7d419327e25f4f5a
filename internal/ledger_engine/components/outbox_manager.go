package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/artho-wallet-ledger/internal/domain/outbox"
	"github.com/artho-wallet-ledger/internal/domain/shared"
	"github.com/artho-wallet-ledger/internal/ledger_engine/service"
	"github.com/jackc/pgx/v5"
)

type OutboxManagerImpl struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func NewOutboxManager(outboxRepo outbox.Repository, logger *slog.Logger) service.OutboxManager {
	return &OutboxManagerImpl{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// Record writes event to the outbox inside the caller's transaction
func (m *OutboxManagerImpl) Record(ctx context.Context, tx pgx.Tx, event *shared.LedgerEvent) error {
	logger := m.logger
	if event.CorrelationID != "" {
		logger = m.logger.With("correlation_id", event.CorrelationID)
	}

	msg, err := outbox.NewMessage(event)
	if err != nil {
		return shared.Internal(fmt.Errorf("failed to encode %s event for tx %s: %w", event.EventType, event.TransactionID, err))
	}

	if err := m.outboxRepo.WithTx(tx).Create(ctx, msg); err != nil {
		logger.Error("Failed to create outbox message",
			"transaction_id", event.TransactionID.String(),
			"event_type", event.EventType,
			"error", err,
		)
		return shared.Internal(fmt.Errorf("failed to create outbox message for tx %s: %w", event.TransactionID, err))
	}

	logger.Debug("Outbox message created",
		"transaction_id", event.TransactionID.String(),
		"event_type", event.EventType,
		"outbox_id", msg.ID,
	)
	return nil
}
