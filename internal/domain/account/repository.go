package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines account persistence operations
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByMobile(ctx context.Context, mobile string) (*Account, error)

	// LockForUpdate acquires row locks in ascending id order and returns the locked rows keyed by id
	LockForUpdate(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*Account, error)

	// ApplyBalanceDeltas applies every delta or fails with ErrInsufficientFunds, never
	// letting a balance go negative. Must run inside a transaction.
	ApplyBalanceDeltas(ctx context.Context, deltas []BalanceDelta) error
	WithTx(tx pgx.Tx) Repository
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	AccountID uuid.UUID
	Mobile    string
}

func (e ErrAccountNotFound) Error() string {
	if e.Mobile != "" {
		return "account not found for mobile: " + e.Mobile
	}
	return "account not found: " + e.AccountID.String()
}

// Is matches any ErrAccountNotFound when the target carries no identifiers
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	if t.AccountID == uuid.Nil && t.Mobile == "" {
		return true
	}
	return e.AccountID == t.AccountID && e.Mobile == t.Mobile
}

// ErrInsufficientFunds indicates a guarded balance update matched no row
type ErrInsufficientFunds struct {
	AccountID uuid.UUID
}

func (e ErrInsufficientFunds) Error() string {
	return "insufficient funds on account: " + e.AccountID.String()
}

func (e ErrInsufficientFunds) Is(target error) bool {
	_, ok := target.(ErrInsufficientFunds)
	return ok
}
