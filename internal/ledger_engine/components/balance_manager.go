package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/artho-wallet-ledger/internal/domain/account"
	"github.com/artho-wallet-ledger/internal/domain/shared"
	"github.com/artho-wallet-ledger/internal/ledger_engine/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type BalanceManagerImpl struct {
	accountRepo account.Repository
	logger      *slog.Logger
}

func NewBalanceManager(accountRepo account.Repository, logger *slog.Logger) service.BalanceManager {
	return &BalanceManagerImpl{
		accountRepo: accountRepo,
		logger:      logger,
	}
}

// Apply locks every posted account, re-checks debits against the locked
// balances and writes the deltas. Postings must net to zero.
func (m *BalanceManagerImpl) Apply(ctx context.Context, tx pgx.Tx, postings []shared.Posting) error {
	deltas, err := mergePostings(postings)
	if err != nil {
		return shared.Internal(err)
	}
	if len(deltas) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(deltas))
	for _, d := range deltas {
		ids = append(ids, d.AccountID)
	}

	repoTx := m.accountRepo.WithTx(tx)
	locked, err := repoTx.LockForUpdate(ctx, ids...)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			return shared.ErrAccountNotFound.WithCause(err)
		}
		return shared.Internal(fmt.Errorf("failed to lock accounts: %w", err))
	}

	for _, d := range deltas {
		acc, ok := locked[d.AccountID]
		if !ok {
			return shared.ErrAccountNotFound.WithCause(account.ErrAccountNotFound{AccountID: d.AccountID})
		}
		if d.Amount < 0 && !acc.CanDebit(-d.Amount) {
			m.logger.Info("Debit no longer covered under lock",
				"account_id", acc.ID.String(),
				"balance", acc.Balance,
				"debit", -d.Amount,
			)
			return shared.ErrInsufficientBalance.WithCause(account.ErrInsufficientFunds{AccountID: acc.ID})
		}
	}

	if err := repoTx.ApplyBalanceDeltas(ctx, deltas); err != nil {
		if errors.Is(err, account.ErrInsufficientFunds{}) {
			return shared.ErrInsufficientBalance.WithCause(err)
		}
		return shared.Internal(fmt.Errorf("failed to apply balance deltas: %w", err))
	}

	m.logger.Debug("Balances updated", "accounts", len(deltas))
	return nil
}

// mergePostings folds postings into one delta per account, keeping first-seen order
func mergePostings(postings []shared.Posting) ([]account.BalanceDelta, error) {
	var net int64
	index := make(map[uuid.UUID]int, len(postings))
	deltas := make([]account.BalanceDelta, 0, len(postings))
	for _, p := range postings {
		if p.AccountID == uuid.Nil {
			return nil, fmt.Errorf("posting for role %s has no account", p.Role)
		}
		net += p.Delta
		if i, ok := index[p.AccountID]; ok {
			deltas[i].Amount += p.Delta
			continue
		}
		index[p.AccountID] = len(deltas)
		deltas = append(deltas, account.BalanceDelta{AccountID: p.AccountID, Amount: p.Delta})
	}
	if net != 0 {
		return nil, fmt.Errorf("postings do not balance: net %d", net)
	}

	out := deltas[:0]
	for _, d := range deltas {
		if d.Amount != 0 {
			out = append(out, d)
		}
	}
	return out, nil
}
