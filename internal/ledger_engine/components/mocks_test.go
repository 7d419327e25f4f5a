package components

import (
	"context"
	"io"
	"log/slog"

	"github.com/artho-wallet-ledger/internal/domain/account"
	"github.com/artho-wallet-ledger/internal/domain/idempotency"
	"github.com/artho-wallet-ledger/internal/domain/outbox"
	"github.com/artho-wallet-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type MockAccountRepo struct {
	mock.Mock
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepo) GetByMobile(ctx context.Context, mobile string) (*account.Account, error) {
	args := m.Called(ctx, mobile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepo) LockForUpdate(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*account.Account, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*account.Account), args.Error(1)
}

func (m *MockAccountRepo) ApplyBalanceDeltas(ctx context.Context, deltas []account.BalanceDelta) error {
	args := m.Called(ctx, deltas)
	return args.Error(0)
}

func (m *MockAccountRepo) WithTx(tx pgx.Tx) account.Repository {
	return m
}

type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	return m
}

type MockIdempotencyRepo struct {
	mock.Mock
}

func (m *MockIdempotencyRepo) Create(ctx context.Context, record *idempotency.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockIdempotencyRepo) GetByKey(ctx context.Context, accountID uuid.UUID, key string) (*idempotency.Record, error) {
	args := m.Called(ctx, accountID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idempotency.Record), args.Error(1)
}

func (m *MockIdempotencyRepo) WithTx(tx pgx.Tx) idempotency.Repository {
	return m
}

// funcExecutor runs fn with a nil transaction, or fails with err before running it
type funcExecutor struct {
	err  error
	runs int
}

func (e *funcExecutor) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	if e.err != nil {
		return e.err
	}
	e.runs++
	return fn(nil)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

var (
	_ account.Repository     = (*MockAccountRepo)(nil)
	_ outbox.Repository      = (*MockOutboxRepo)(nil)
	_ idempotency.Repository = (*MockIdempotencyRepo)(nil)
	_ TxExecutor             = (*funcExecutor)(nil)
)
