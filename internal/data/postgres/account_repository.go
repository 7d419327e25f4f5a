// Package postgres provides PostgreSQL implementations of the domain repositories.
// Every repository can be rebound to a transaction with WithTx so a ledger
// operation's reads, locks and writes commit or roll back together.
package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/artho-wallet-ledger/internal/domain/account"
	"github.com/artho-wallet-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const accountColumns = `id, name, mobile, email, role, status, balance, pin_hash, version, created_at, updated_at`

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) account.Repository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func scanAccount(row pgx.Row) (*account.Account, error) {
	var acc account.Account
	err := row.Scan(
		&acc.ID,
		&acc.Name,
		&acc.Mobile,
		&acc.Email,
		&acc.Role,
		&acc.Status,
		&acc.Balance,
		&acc.PinHash,
		&acc.Version,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

func (r *AccountRepository) GetByMobile(ctx context.Context, mobile string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE mobile = $1`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, mobile))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{Mobile: mobile}
		}
		r.logger.Error("Failed to get account by mobile", "mobile", mobile, "error", err)
		return nil, fmt.Errorf("failed to get account by mobile: %w", err)
	}
	return acc, nil
}

// LockForUpdate takes row locks one account at a time in ascending id order, so two
// units touching the same accounts always queue instead of deadlocking.
func (r *AccountRepository) LockForUpdate(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`

	locked := make(map[uuid.UUID]*account.Account, len(ids))
	for _, id := range SortedUniqueIDs(ids) {
		acc, err := scanAccount(r.querier.QueryRow(ctx, query, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, account.ErrAccountNotFound{AccountID: id}
			}
			r.logger.Error("Failed to lock account for update", "id", id.String(), "error", err)
			return nil, fmt.Errorf("failed to lock account for update: %w", err)
		}
		locked[id] = acc
	}
	return locked, nil
}

// ApplyBalanceDeltas applies each non-zero delta with a guard that refuses to take a
// balance below zero. A refused update surfaces as ErrInsufficientFunds and the caller's
// transaction must roll back.
func (r *AccountRepository) ApplyBalanceDeltas(ctx context.Context, deltas []account.BalanceDelta) error {
	query := `
		UPDATE accounts
		SET balance = balance + $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND balance + $1 >= 0
	`

	ordered := make([]account.BalanceDelta, 0, len(deltas))
	for _, d := range deltas {
		if d.Amount != 0 {
			ordered = append(ordered, d)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i].AccountID[:], ordered[j].AccountID[:]) < 0
	})

	for _, d := range ordered {
		result, err := r.querier.Exec(ctx, query, d.Amount, d.AccountID)
		if err != nil {
			if persistence.IsCheckViolation(err) {
				return account.ErrInsufficientFunds{AccountID: d.AccountID}
			}
			r.logger.Error("Failed to apply balance delta", "id", d.AccountID.String(), "delta", d.Amount, "error", err)
			return fmt.Errorf("failed to apply balance delta: %w", err)
		}
		if result.RowsAffected() == 0 {
			return account.ErrInsufficientFunds{AccountID: d.AccountID}
		}
	}
	return nil
}

// SortedUniqueIDs returns ids deduplicated in the byte order Postgres uses for uuid
func SortedUniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}
