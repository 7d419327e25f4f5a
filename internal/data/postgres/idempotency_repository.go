package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/artho-wallet-ledger/internal/domain/idempotency"
	"github.com/artho-wallet-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type IdempotencyRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewIdempotencyRepository(logger *slog.Logger, db *persistence.PostgresDB) idempotency.Repository {
	return &IdempotencyRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *IdempotencyRepository) WithTx(tx pgx.Tx) idempotency.Repository {
	return &IdempotencyRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create claims the key for the record's account. The (account_id, key) primary
// key makes a second claim fail with ErrDuplicateKey, even when both claims race
// inside open transactions.
func (r *IdempotencyRepository) Create(ctx context.Context, rec *idempotency.Record) error {
	query := `
		INSERT INTO idempotency_keys (key, operation, account_id, transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.querier.Exec(ctx, query, rec.Key, rec.Operation, rec.AccountID, rec.TransactionID, rec.CreatedAt)
	if err != nil {
		if persistence.IsUniqueViolation(err) {
			return idempotency.ErrDuplicateKey{Key: rec.Key}
		}
		r.logger.Error("Failed to store idempotency key", "operation", string(rec.Operation), "error", err)
		return fmt.Errorf("failed to store idempotency key: %w", err)
	}
	return nil
}

func (r *IdempotencyRepository) GetByKey(ctx context.Context, accountID uuid.UUID, key string) (*idempotency.Record, error) {
	query := `
		SELECT key, operation, account_id, transaction_id, created_at
		FROM idempotency_keys
		WHERE account_id = $1 AND key = $2
	`

	var rec idempotency.Record
	err := r.querier.QueryRow(ctx, query, accountID, key).Scan(
		&rec.Key,
		&rec.Operation,
		&rec.AccountID,
		&rec.TransactionID,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get idempotency key", "error", err)
		return nil, fmt.Errorf("failed to get idempotency key: %w", err)
	}
	return &rec, nil
}
