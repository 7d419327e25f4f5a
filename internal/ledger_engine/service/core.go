package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/artho-wallet-ledger/internal/domain/account"
	"github.com/artho-wallet-ledger/internal/domain/idempotency"
	"github.com/artho-wallet-ledger/internal/domain/ledger"
	"github.com/artho-wallet-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Dependencies are shared by every processor of the engine
type Dependencies struct {
	Accounts         account.Repository
	Ledger           ledger.Repository
	Runner           UnitRunner
	Balances         BalanceManager
	Outbox           OutboxManager
	Idempotency      IdempotencyGuard
	Pins             PinVerifier
	RevenueAccountID uuid.UUID
	Logger           *slog.Logger
	Now              func() time.Time
}

type core struct {
	Dependencies
}

func newCore(deps Dependencies) core {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return core{Dependencies: deps}
}

func (c *core) log(correlationID string) *slog.Logger {
	if correlationID == "" {
		return c.Logger
	}
	return c.Logger.With("correlation_id", correlationID)
}

// accountByID resolves an account, reporting a miss as notFound
func (c *core) accountByID(ctx context.Context, id uuid.UUID, notFound *shared.Error) (*account.Account, error) {
	acc, err := c.Accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			return nil, notFound.WithCause(err)
		}
		return nil, shared.Internal(err)
	}
	return acc, nil
}

func (c *core) accountByMobile(ctx context.Context, mobile string, notFound *shared.Error) (*account.Account, error) {
	acc, err := c.Accounts.GetByMobile(ctx, mobile)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			return nil, notFound.WithCause(err)
		}
		return nil, shared.Internal(err)
	}
	return acc, nil
}

// agentByMobile resolves an approved agent; a non-agent account counts as missing
func (c *core) agentByMobile(ctx context.Context, mobile string) (*account.Account, error) {
	agent, err := c.accountByMobile(ctx, mobile, shared.ErrAgentNotFound)
	if err != nil {
		return nil, err
	}
	if !agent.IsAgent() {
		return nil, shared.ErrAgentNotFound.WithCause(fmt.Errorf("account %s has role %s", agent.ID, agent.Role))
	}
	return agent, requireApproved(agent)
}

func requireApproved(acc *account.Account) error {
	if !acc.IsApproved() {
		return shared.ErrAccountNotApproved.WithCause(fmt.Errorf("account %s is %s", acc.ID, acc.Status))
	}
	return nil
}

func (c *core) verifyPin(acc *account.Account, pin string) error {
	ok, err := c.Pins.Verify(acc.PinHash, pin)
	if err != nil {
		return shared.Internal(err)
	}
	if !ok {
		return shared.ErrInvalidPin
	}
	return nil
}

// replay returns the entry an idempotency record points at
func (c *core) replay(ctx context.Context, rec *idempotency.Record) (*ledger.Entry, error) {
	entry, err := c.Ledger.GetByID(ctx, rec.TransactionID)
	if err != nil {
		return nil, shared.Internal(fmt.Errorf("failed to load replayed transaction %s: %w", rec.TransactionID, err))
	}
	return entry, nil
}

// lookupReplay checks key before any validation that depends on mutable state
func (c *core) lookupReplay(ctx context.Context, key string, op idempotency.Operation, callerID uuid.UUID) (*ledger.Entry, error) {
	if key == "" {
		return nil, shared.ErrIdempotencyKeyRequired
	}
	rec, err := c.Idempotency.Lookup(ctx, key, op, callerID)
	if err != nil || rec == nil {
		return nil, err
	}
	return c.replay(ctx, rec)
}

// runIdempotent claims rec and runs body in one unit. Losing the key to a
// concurrent request with the same key turns into a replay of its result.
func (c *core) runIdempotent(ctx context.Context, rec *idempotency.Record, body UnitFunc) (bool, *ledger.Entry, error) {
	err := c.Runner.Run(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := c.Idempotency.Claim(ctx, tx, rec); err != nil {
			return err
		}
		return body(ctx, tx)
	})
	if err == nil {
		return false, nil, nil
	}
	if !errors.Is(err, idempotency.ErrDuplicateKey{}) {
		return false, nil, err
	}

	winner, lookupErr := c.Idempotency.Lookup(ctx, rec.Key, rec.Operation, rec.AccountID)
	if lookupErr != nil {
		return false, nil, lookupErr
	}
	if winner == nil {
		return false, nil, shared.Internal(err)
	}
	entry, replayErr := c.replay(ctx, winner)
	return true, entry, replayErr
}

// postings drops zero deltas so the event mirrors exactly what was applied
func postings(ps ...shared.Posting) []shared.Posting {
	out := make([]shared.Posting, 0, len(ps))
	for _, p := range ps {
		if p.Delta != 0 {
			out = append(out, p)
		}
	}
	return out
}

func (c *core) event(eventType shared.LedgerEventType, entry *ledger.Entry, ps []shared.Posting) *shared.LedgerEvent {
	return &shared.LedgerEvent{
		EventID:         uuid.New(),
		EventType:       eventType,
		TransactionID:   entry.ID,
		TransactionType: entry.Type,
		Status:          entry.Status,
		Amount:          entry.Amount,
		Fee:             entry.Fee,
		AgentMobile:     entry.AgentMobile,
		UserMobile:      entry.UserMobile,
		Postings:        ps,
		CorrelationID:   entry.CorrelationID,
		OccurredAt:      c.Now().UTC(),
	}
}

func createEntry(ctx context.Context, repo ledger.Repository, entry *ledger.Entry) error {
	if err := repo.Create(ctx, entry); err != nil {
		return shared.Internal(fmt.Errorf("failed to append %s entry %s: %w", entry.Type, entry.ID, err))
	}
	return nil
}

// logUnitFailure logs definite business rejections quietly and everything else as errors
func logUnitFailure(logger *slog.Logger, op string, err error) {
	switch shared.KindOf(err) {
	case shared.ErrorKindInternal, shared.ErrorKindOutcomeUnknown:
		logger.Error("Ledger unit failed", "operation", op, "error", err)
	default:
		logger.Info("Ledger unit rejected", "operation", op, "error", err)
	}
}
