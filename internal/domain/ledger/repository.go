package ledger

import (
	"context"
	"time"

	"github.com/artho-wallet-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RecentFilter selects the entries an account took part in
type RecentFilter struct {
	AccountID uuid.UUID
	Mobile    string
}

// Repository is the append-only wallet transaction log
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)

	// UpdateStatus moves an entry from expected to next only if it is still in expected.
	// Returns ErrStatusConflict when no row matched.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next shared.TransactionStatus, at time.Time) error

	ListCashInRequests(ctx context.Context, agentMobile string) ([]*Entry, error)
	QueryRecent(ctx context.Context, filter RecentFilter, limit int) ([]*Entry, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrEntryNotFound indicates missing ledger entry
type ErrEntryNotFound struct {
	ID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "ledger entry not found: " + e.ID.String()
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	if t.ID == uuid.Nil {
		return true
	}
	return e.ID == t.ID
}

// ErrStatusConflict indicates a guarded status transition lost to another writer
type ErrStatusConflict struct {
	ID       uuid.UUID
	Expected shared.TransactionStatus
}

func (e ErrStatusConflict) Error() string {
	return "ledger entry " + e.ID.String() + " is no longer " + string(e.Expected)
}

func (e ErrStatusConflict) Is(target error) bool {
	_, ok := target.(ErrStatusConflict)
	return ok
}
