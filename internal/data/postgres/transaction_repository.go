package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/artho-wallet-ledger/internal/domain/ledger"
	"github.com/artho-wallet-ledger/internal/domain/shared"
	"github.com/artho-wallet-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const entryColumns = `id, type, sender_id, receiver_id, agent_mobile, user_mobile, amount, fee, status, correlation_id, created_at, accepted_at`

// TransactionRepository implements ledger.Repository over the wallet_transactions table
type TransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) ledger.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *TransactionRepository) WithTx(tx pgx.Tx) ledger.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func scanEntry(row pgx.Row) (*ledger.Entry, error) {
	var e ledger.Entry
	err := row.Scan(
		&e.ID,
		&e.Type,
		&e.SenderID,
		&e.ReceiverID,
		&e.AgentMobile,
		&e.UserMobile,
		&e.Amount,
		&e.Fee,
		&e.Status,
		&e.CorrelationID,
		&e.CreatedAt,
		&e.AcceptedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create appends an entry; its status is always written explicitly
func (r *TransactionRepository) Create(ctx context.Context, e *ledger.Entry) error {
	query := `
		INSERT INTO wallet_transactions (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.querier.Exec(ctx, query,
		e.ID,
		e.Type,
		e.SenderID,
		e.ReceiverID,
		e.AgentMobile,
		e.UserMobile,
		e.Amount,
		e.Fee,
		e.Status,
		e.CorrelationID,
		e.CreatedAt,
		e.AcceptedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create transaction", "id", e.ID.String(), "type", string(e.Type), "error", err)
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM wallet_transactions WHERE id = $1`

	e, err := scanEntry(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrEntryNotFound{ID: id}
		}
		r.logger.Error("Failed to get transaction", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return e, nil
}

// UpdateStatus is a compare-and-set on status; of two concurrent callers only one
// sees a row affected
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next shared.TransactionStatus, at time.Time) error {
	query := `
		UPDATE wallet_transactions
		SET status = $1, accepted_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.querier.Exec(ctx, query, next, at, id, expected)
	if err != nil {
		r.logger.Error("Failed to update transaction status", "id", id.String(), "status", string(next), "error", err)
		return fmt.Errorf("failed to update transaction status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ledger.ErrStatusConflict{ID: id, Expected: expected}
	}
	return nil
}

// ListCashInRequests returns every request addressed to the agent regardless of status
func (r *TransactionRepository) ListCashInRequests(ctx context.Context, agentMobile string) ([]*ledger.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM wallet_transactions
		WHERE type = $1 AND agent_mobile = $2
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.querier.Query(ctx, query, shared.TransactionTypeCashInRequest, agentMobile)
	if err != nil {
		r.logger.Error("Failed to list cash-in requests", "agent_mobile", agentMobile, "error", err)
		return nil, fmt.Errorf("failed to list cash-in requests: %w", err)
	}
	return r.collect(rows)
}

// QueryRecent reads the newest entries the account took part in, newest first
func (r *TransactionRepository) QueryRecent(ctx context.Context, filter ledger.RecentFilter, limit int) ([]*ledger.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM wallet_transactions
		WHERE user_mobile = $1 OR sender_id = $2 OR receiver_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`

	rows, err := r.querier.Query(ctx, query, filter.Mobile, filter.AccountID, limit)
	if err != nil {
		r.logger.Error("Failed to query recent transactions", "account_id", filter.AccountID.String(), "error", err)
		return nil, fmt.Errorf("failed to query recent transactions: %w", err)
	}
	return r.collect(rows)
}

func (r *TransactionRepository) collect(rows pgx.Rows) ([]*ledger.Entry, error) {
	defer rows.Close()

	entries := make([]*ledger.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			r.logger.Error("Failed to scan transaction", "error", err)
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over transactions", "error", err)
		return nil, fmt.Errorf("error iterating over transactions: %w", err)
	}
	return entries, nil
}
