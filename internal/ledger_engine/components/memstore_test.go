package components

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/artho-wallet-ledger/internal/domain/account"
	"github.com/artho-wallet-ledger/internal/domain/idempotency"
	"github.com/artho-wallet-ledger/internal/domain/ledger"
	"github.com/artho-wallet-ledger/internal/domain/outbox"
	"github.com/artho-wallet-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// memStore is an in-memory stand-in for Postgres. Units are serialized and
// every write made by a failed unit is rolled back from a snapshot.
type memStore struct {
	unit sync.Mutex
	mu   sync.RWMutex

	accounts map[uuid.UUID]account.Account
	entries  map[uuid.UUID]ledger.Entry
	keys     map[memKey]idempotency.Record
	outbox   []outbox.Message

	failOutbox error
}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[uuid.UUID]account.Account),
		entries:  make(map[uuid.UUID]ledger.Entry),
		keys:     make(map[memKey]idempotency.Record),
	}
}

type memSnapshot struct {
	accounts map[uuid.UUID]account.Account
	entries  map[uuid.UUID]ledger.Entry
	keys     map[memKey]idempotency.Record
	outbox   []outbox.Message
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := memSnapshot{
		accounts: make(map[uuid.UUID]account.Account, len(s.accounts)),
		entries:  make(map[uuid.UUID]ledger.Entry, len(s.entries)),
		keys:     make(map[memKey]idempotency.Record, len(s.keys)),
		outbox:   append([]outbox.Message(nil), s.outbox...),
	}
	for k, v := range s.accounts {
		snap.accounts[k] = v
	}
	for k, v := range s.entries {
		snap.entries[k] = v
	}
	for k, v := range s.keys {
		snap.keys[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = snap.accounts
	s.entries = snap.entries
	s.keys = snap.keys
	s.outbox = snap.outbox
}

// ExecuteTx makes memStore a TxExecutor
func (s *memStore) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	s.unit.Lock()
	defer s.unit.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	snap := s.snapshot()
	if err := fn(nil); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) add(acc *account.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[acc.ID] = *acc
}

func (s *memStore) balance(id uuid.UUID) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts[id].Balance
}

func (s *memStore) totalBalance() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, acc := range s.accounts {
		total += acc.Balance
	}
	return total
}

func (s *memStore) minBalance() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	first := true
	var low int64
	for _, acc := range s.accounts {
		if first || acc.Balance < low {
			low = acc.Balance
			first = false
		}
	}
	return low
}

func (s *memStore) outboxLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.outbox)
}

func (s *memStore) entryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

type memAccounts struct{ s *memStore }

func (r memAccounts) GetByID(_ context.Context, id uuid.UUID) (*account.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	acc, ok := r.s.accounts[id]
	if !ok {
		return nil, account.ErrAccountNotFound{AccountID: id}
	}
	return &acc, nil
}

func (r memAccounts) GetByMobile(_ context.Context, mobile string) (*account.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, acc := range r.s.accounts {
		if acc.Mobile == mobile {
			found := acc
			return &found, nil
		}
	}
	return nil, account.ErrAccountNotFound{Mobile: mobile}
}

func (r memAccounts) LockForUpdate(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*account.Account, error) {
	locked := make(map[uuid.UUID]*account.Account, len(ids))
	for _, id := range ids {
		acc, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		locked[id] = acc
	}
	return locked, nil
}

func (r memAccounts) ApplyBalanceDeltas(_ context.Context, deltas []account.BalanceDelta) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range deltas {
		acc, ok := r.s.accounts[d.AccountID]
		if !ok {
			return account.ErrAccountNotFound{AccountID: d.AccountID}
		}
		if acc.Balance+d.Amount < 0 {
			return account.ErrInsufficientFunds{AccountID: d.AccountID}
		}
		acc.Balance += d.Amount
		acc.Version++
		r.s.accounts[d.AccountID] = acc
	}
	return nil
}

func (r memAccounts) WithTx(_ pgx.Tx) account.Repository { return r }

type memLedger struct{ s *memStore }

func (r memLedger) Create(_ context.Context, e *ledger.Entry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.entries[e.ID]; exists {
		return errors.New("duplicate entry id")
	}
	r.s.entries[e.ID] = *e
	return nil
}

func (r memLedger) GetByID(_ context.Context, id uuid.UUID) (*ledger.Entry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.entries[id]
	if !ok {
		return nil, ledger.ErrEntryNotFound{ID: id}
	}
	return &e, nil
}

func (r memLedger) UpdateStatus(_ context.Context, id uuid.UUID, expected, next shared.TransactionStatus, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.entries[id]
	if !ok || e.Status != expected {
		return ledger.ErrStatusConflict{ID: id, Expected: expected}
	}
	e.Status = next
	e.AcceptedAt = &at
	r.s.entries[id] = e
	return nil
}

func (r memLedger) ListCashInRequests(_ context.Context, agentMobile string) ([]*ledger.Entry, error) {
	return r.selectSorted(func(e ledger.Entry) bool {
		return e.Type == shared.TransactionTypeCashInRequest && e.AgentMobile == agentMobile
	}, 0), nil
}

func (r memLedger) QueryRecent(_ context.Context, f ledger.RecentFilter, limit int) ([]*ledger.Entry, error) {
	return r.selectSorted(func(e ledger.Entry) bool {
		return e.UserMobile == f.Mobile ||
			(e.SenderID != nil && *e.SenderID == f.AccountID) ||
			(e.ReceiverID != nil && *e.ReceiverID == f.AccountID)
	}, limit), nil
}

// selectSorted orders by created_at DESC, id DESC like the SQL repository
func (r memLedger) selectSorted(keep func(ledger.Entry) bool, limit int) []*ledger.Entry {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*ledger.Entry{}
	for _, e := range r.s.entries {
		if keep(e) {
			found := e
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) > 0
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r memLedger) WithTx(_ pgx.Tx) ledger.Repository { return r }

type memOutbox struct{ s *memStore }

func (r memOutbox) Create(_ context.Context, m *outbox.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failOutbox != nil {
		return r.s.failOutbox
	}
	m.ID = int64(len(r.s.outbox) + 1)
	r.s.outbox = append(r.s.outbox, *m)
	return nil
}

func (r memOutbox) GetPending(_ context.Context, limit int) ([]*outbox.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*outbox.Message{}
	for i := range r.s.outbox {
		if r.s.outbox[i].Status == shared.OutboxStatusPending && len(out) < limit {
			m := r.s.outbox[i]
			out = append(out, &m)
		}
	}
	return out, nil
}

func (r memOutbox) UpdateStatus(_ context.Context, id int64, status shared.OutboxStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.outbox[id-1].Status = status
	return nil
}

func (r memOutbox) IncrementAttempts(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.outbox[id-1].Attempts++
	return nil
}

func (r memOutbox) WithTx(_ pgx.Tx) outbox.Repository { return r }

type memKeys struct{ s *memStore }

// memKey mirrors the (account_id, key) primary key
type memKey struct {
	account uuid.UUID
	key     string
}

func (r memKeys) Create(_ context.Context, rec *idempotency.Record) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := memKey{account: rec.AccountID, key: rec.Key}
	if _, exists := r.s.keys[k]; exists {
		return idempotency.ErrDuplicateKey{Key: rec.Key}
	}
	r.s.keys[k] = *rec
	return nil
}

func (r memKeys) GetByKey(_ context.Context, accountID uuid.UUID, key string) (*idempotency.Record, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.keys[memKey{account: accountID, key: key}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r memKeys) WithTx(_ pgx.Tx) idempotency.Repository { return r }

func (s *memStore) repositories() Repositories {
	return Repositories{
		Accounts:    memAccounts{s},
		Ledger:      memLedger{s},
		Outbox:      memOutbox{s},
		Idempotency: memKeys{s},
	}
}

// plainPins treats "pin:<pin>" as the hash of <pin>
type plainPins struct{}

func (plainPins) Verify(hash, pin string) (bool, error) {
	return hash == "pin:"+pin, nil
}

var (
	_ account.Repository     = memAccounts{}
	_ ledger.Repository      = memLedger{}
	_ outbox.Repository      = memOutbox{}
	_ idempotency.Repository = memKeys{}
	_ TxExecutor             = (*memStore)(nil)
)
