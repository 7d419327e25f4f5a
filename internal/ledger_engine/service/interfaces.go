package service

import (
	"context"

	"github.com/artho-wallet-ledger/internal/domain/idempotency"
	"github.com/artho-wallet-ledger/internal/domain/ledger"
	"github.com/artho-wallet-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransferProcessor moves money between two customers
type TransferProcessor interface {
	Send(ctx context.Context, req *SendRequest) (*ledger.Entry, error)
}

// CashInWorkflow handles the two-step deposit through an agent
type CashInWorkflow interface {
	SubmitCashInRequest(ctx context.Context, req *SubmitCashInRequest) (*ledger.Entry, error)
	ListCashInRequests(ctx context.Context, req *ListCashInRequests) ([]*ledger.Entry, error)
	AcceptCashInRequest(ctx context.Context, req *AcceptCashInRequest) (*ledger.Entry, error)
}

// CashOutProcessor handles withdrawals through an agent
type CashOutProcessor interface {
	CashOut(ctx context.Context, req *CashOutRequest) (*ledger.Entry, error)
}

// HistoryReader returns the most recent entries an account took part in
type HistoryReader interface {
	History(ctx context.Context, req *HistoryRequest) ([]*ledger.Entry, error)
}

// UnitFunc is the body of one atomic unit. Everything it writes through tx
// commits together or not at all.
type UnitFunc func(ctx context.Context, tx pgx.Tx) error

// UnitRunner executes a UnitFunc as a single bounded database transaction.
// A unit that runs out of time fails with shared.ErrOutcomeUnknown.
type UnitRunner interface {
	Run(ctx context.Context, fn UnitFunc) error
}

// BalanceManager locks the accounts named by postings, re-checks every
// debit under the lock and applies the deltas
type BalanceManager interface {
	Apply(ctx context.Context, tx pgx.Tx, postings []shared.Posting) error
}

// OutboxManager writes the ledger event for a unit into the outbox
type OutboxManager interface {
	Record(ctx context.Context, tx pgx.Tx, event *shared.LedgerEvent) error
}

// IdempotencyGuard binds client keys to the transaction they produced
type IdempotencyGuard interface {
	// Lookup returns the record bound to key, nil when the key is fresh, or
	// shared.ErrIdempotencyKeyReused when it belongs to another operation or caller
	Lookup(ctx context.Context, key string, op idempotency.Operation, accountID uuid.UUID) (*idempotency.Record, error)

	// Claim inserts the record inside the unit. A concurrent claim of the same
	// key fails with idempotency.ErrDuplicateKey.
	Claim(ctx context.Context, tx pgx.Tx, record *idempotency.Record) error
}

// PinVerifier checks a PIN against a stored hash
type PinVerifier interface {
	Verify(hash, pin string) (bool, error)
}
