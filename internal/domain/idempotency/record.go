package idempotency

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Operation names the mutating call an idempotency key is bound to
type Operation string

const (
	OperationSend         Operation = "send"
	OperationCashInAccept Operation = "cashInAccept"
	OperationCashOut      Operation = "cashOut"
)

// Record binds a client-supplied key to the transaction it produced.
// It commits in the same database transaction as the effect.
type Record struct {
	Key           string    `json:"key"`
	Operation     Operation `json:"operation"`
	AccountID     uuid.UUID `json:"account_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewRecord(key string, op Operation, accountID, transactionID uuid.UUID) *Record {
	return &Record{
		Key:           key,
		Operation:     op,
		AccountID:     accountID,
		TransactionID: transactionID,
		CreatedAt:     time.Now().UTC(),
	}
}

// Matches reports whether a replay for op by accountID may reuse this record
func (r *Record) Matches(op Operation, accountID uuid.UUID) bool {
	return r.Operation == op && r.AccountID == accountID
}

// Repository persists idempotency records
type Repository interface {
	// Create returns ErrDuplicateKey when the account already used the key
	Create(ctx context.Context, record *Record) error
	// GetByKey returns nil, nil when the account never used the key.
	// Keys of different accounts never collide.
	GetByKey(ctx context.Context, accountID uuid.UUID, key string) (*Record, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrDuplicateKey indicates the key was already consumed
type ErrDuplicateKey struct {
	Key string
}

func (e ErrDuplicateKey) Error() string {
	return "idempotency key already used: " + e.Key
}

func (e ErrDuplicateKey) Is(target error) bool {
	_, ok := target.(ErrDuplicateKey)
	return ok
}
