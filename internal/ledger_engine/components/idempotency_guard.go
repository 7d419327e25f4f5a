package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/artho-wallet-ledger/internal/domain/idempotency"
	"github.com/artho-wallet-ledger/internal/domain/shared"
	"github.com/artho-wallet-ledger/internal/ledger_engine/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type IdempotencyGuardImpl struct {
	repo   idempotency.Repository
	logger *slog.Logger
}

func NewIdempotencyGuard(repo idempotency.Repository, logger *slog.Logger) service.IdempotencyGuard {
	return &IdempotencyGuardImpl{
		repo:   repo,
		logger: logger,
	}
}

func (g *IdempotencyGuardImpl) Lookup(ctx context.Context, key string, op idempotency.Operation, accountID uuid.UUID) (*idempotency.Record, error) {
	rec, err := g.repo.GetByKey(ctx, accountID, key)
	if err != nil {
		return nil, shared.Internal(fmt.Errorf("idempotency lookup failed for key %s: %w", key, err))
	}
	if rec == nil {
		return nil, nil
	}
	if !rec.Matches(op, accountID) {
		g.logger.Warn("Idempotency key reused",
			"key", key,
			"stored_operation", rec.Operation,
			"operation", op,
			"account_id", accountID.String(),
		)
		return nil, shared.ErrIdempotencyKeyReused
	}
	return rec, nil
}

// Claim returns idempotency.ErrDuplicateKey unchanged so callers can tell a
// lost race from a storage failure
func (g *IdempotencyGuardImpl) Claim(ctx context.Context, tx pgx.Tx, record *idempotency.Record) error {
	err := g.repo.WithTx(tx).Create(ctx, record)
	if err == nil {
		return nil
	}
	if errors.Is(err, idempotency.ErrDuplicateKey{}) {
		return err
	}
	return shared.Internal(fmt.Errorf("failed to claim idempotency key %s: %w", record.Key, err))
}
