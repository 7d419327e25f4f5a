package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/artho-wallet-ledger/internal/domain/account"
	"github.com/artho-wallet-ledger/internal/domain/idempotency"
	"github.com/artho-wallet-ledger/internal/domain/ledger"
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

func (m *MockAccountRepo) WithTx(_ pgx.Tx) account.Repository {
	return m
}

type MockLedgerRepo struct {
	mock.Mock
}

func (m *MockLedgerRepo) Create(ctx context.Context, entry *ledger.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepo) GetByID(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockLedgerRepo) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next shared.TransactionStatus, at time.Time) error {
	args := m.Called(ctx, id, expected, next, at)
	return args.Error(0)
}

func (m *MockLedgerRepo) ListCashInRequests(ctx context.Context, agentMobile string) ([]*ledger.Entry, error) {
	args := m.Called(ctx, agentMobile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Entry), args.Error(1)
}

func (m *MockLedgerRepo) QueryRecent(ctx context.Context, filter ledger.RecentFilter, limit int) ([]*ledger.Entry, error) {
	args := m.Called(ctx, filter, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Entry), args.Error(1)
}

func (m *MockLedgerRepo) WithTx(_ pgx.Tx) ledger.Repository {
	return m
}

type MockBalanceManager struct {
	mock.Mock
}

func (m *MockBalanceManager) Apply(ctx context.Context, tx pgx.Tx, postings []shared.Posting) error {
	args := m.Called(ctx, tx, postings)
	return args.Error(0)
}

type MockOutboxManager struct {
	mock.Mock
}

func (m *MockOutboxManager) Record(ctx context.Context, tx pgx.Tx, event *shared.LedgerEvent) error {
	args := m.Called(ctx, tx, event)
	return args.Error(0)
}

type MockIdempotencyGuard struct {
	mock.Mock
}

func (m *MockIdempotencyGuard) Lookup(ctx context.Context, key string, op idempotency.Operation, accountID uuid.UUID) (*idempotency.Record, error) {
	args := m.Called(ctx, key, op, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idempotency.Record), args.Error(1)
}

func (m *MockIdempotencyGuard) Claim(ctx context.Context, tx pgx.Tx, record *idempotency.Record) error {
	args := m.Called(ctx, tx, record)
	return args.Error(0)
}

type MockPinVerifier struct {
	mock.Mock
}

func (m *MockPinVerifier) Verify(hash, pin string) (bool, error) {
	args := m.Called(hash, pin)
	return args.Bool(0), args.Error(1)
}

// directRunner runs the unit inline without a transaction
type directRunner struct {
	runs int
}

func (r *directRunner) Run(ctx context.Context, fn UnitFunc) error {
	r.runs++
	return fn(ctx, nil)
}

var (
	_ account.Repository = (*MockAccountRepo)(nil)
	_ ledger.Repository  = (*MockLedgerRepo)(nil)
	_ BalanceManager     = (*MockBalanceManager)(nil)
	_ OutboxManager      = (*MockOutboxManager)(nil)
	_ IdempotencyGuard   = (*MockIdempotencyGuard)(nil)
	_ PinVerifier        = (*MockPinVerifier)(nil)
	_ UnitRunner         = (*directRunner)(nil)
)

var revenueID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

type fixture struct {
	accounts *MockAccountRepo
	ledger   *MockLedgerRepo
	balances *MockBalanceManager
	outbox   *MockOutboxManager
	guard    *MockIdempotencyGuard
	pins     *MockPinVerifier
	runner   *directRunner
	now      time.Time
}

func newFixture() *fixture {
	return &fixture{
		accounts: new(MockAccountRepo),
		ledger:   new(MockLedgerRepo),
		balances: new(MockBalanceManager),
		outbox:   new(MockOutboxManager),
		guard:    new(MockIdempotencyGuard),
		pins:     new(MockPinVerifier),
		runner:   &directRunner{},
		now:      time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) deps() Dependencies {
	return Dependencies{
		Accounts:         f.accounts,
		Ledger:           f.ledger,
		Runner:           f.runner,
		Balances:         f.balances,
		Outbox:           f.outbox,
		Idempotency:      f.guard,
		Pins:             f.pins,
		RevenueAccountID: revenueID,
		Logger:           slog.New(slog.NewJSONHandler(io.Discard, nil)),
		Now:              func() time.Time { return f.now },
	}
}

func (f *fixture) assertExpectations(t mock.TestingT) {
	f.accounts.AssertExpectations(t)
	f.ledger.AssertExpectations(t)
	f.balances.AssertExpectations(t)
	f.outbox.AssertExpectations(t)
	f.guard.AssertExpectations(t)
	f.pins.AssertExpectations(t)
}

func testAccount(mobile string, role account.Role, balance int64) *account.Account {
	return &account.Account{
		ID:      uuid.New(),
		Name:    "Holder " + mobile,
		Mobile:  mobile,
		Role:    role,
		Status:  account.StatusApproved,
		Balance: balance,
		PinHash: "hash-" + mobile,
	}
}

// postingsEqual matches postings by content and order
func postingsEqual(want []shared.Posting) interface{} {
	return mock.MatchedBy(func(got []shared.Posting) bool {
		if len(got) != len(want) {
			return false
		}
		for i := range want {
			if got[i] != want[i] {
				return false
			}
		}
		return true
	})
}
