package service

import (
	"context"

	"github.com/artho-wallet-ledger/internal/domain/idempotency"
	"github.com/artho-wallet-ledger/internal/domain/ledger"
	"github.com/artho-wallet-ledger/internal/domain/shared"
	"github.com/jackc/pgx/v5"
)

type CashOutService struct {
	core
}

func NewCashOutService(deps Dependencies) *CashOutService {
	return &CashOutService{core: newCore(deps)}
}

// CashOut pays amount to the agent, debiting the user for amount plus the 1.5% fee
func (s *CashOutService) CashOut(ctx context.Context, req *CashOutRequest) (*ledger.Entry, error) {
	logger := s.log(req.CorrelationID).With("user_mobile", req.UserMobile, "agent_mobile", req.AgentMobile, "amount", req.Amount)

	if req.Amount <= 0 {
		return nil, shared.ErrInvalidAmount
	}
	if replayed, err := s.lookupReplay(ctx, req.IdempotencyKey, idempotency.OperationCashOut, req.CallerID); err != nil || replayed != nil {
		return replayed, err
	}

	user, err := s.accountByMobile(ctx, req.UserMobile, shared.ErrAccountNotFound)
	if err != nil {
		return nil, err
	}
	if user.ID != req.CallerID {
		return nil, shared.ErrForbidden
	}
	if err := requireApproved(user); err != nil {
		return nil, err
	}
	if err := s.verifyPin(user, req.Pin); err != nil {
		logger.Warn("Cash-out rejected: pin check failed", "error", err)
		return nil, err
	}
	agent, err := s.agentByMobile(ctx, req.AgentMobile)
	if err != nil {
		return nil, err
	}
	if agent.ID == user.ID {
		return nil, shared.ErrSelfTransfer
	}

	fee := ledger.CashOutFee(req.Amount)
	entry := ledger.NewCashOutEntry(user.Mobile, agent.Mobile, req.Amount, fee, req.CorrelationID)
	if !user.CanDebit(entry.Total()) {
		logger.Info("Cash-out rejected: insufficient balance", "balance", user.Balance, "total", entry.Total())
		return nil, shared.ErrInsufficientBalance
	}

	ps := postings(
		shared.Posting{AccountID: user.ID, Delta: -entry.Total(), Role: shared.PostingRoleUser},
		shared.Posting{AccountID: agent.ID, Delta: entry.Amount, Role: shared.PostingRoleAgent},
		shared.Posting{AccountID: s.RevenueAccountID, Delta: fee, Role: shared.PostingRoleFee},
	)
	rec := idempotency.NewRecord(req.IdempotencyKey, idempotency.OperationCashOut, user.ID, entry.ID)

	replayed, winner, err := s.runIdempotent(ctx, rec, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.Balances.Apply(ctx, tx, ps); err != nil {
			return err
		}
		if err := createEntry(ctx, s.Ledger.WithTx(tx), entry); err != nil {
			return err
		}
		return s.Outbox.Record(ctx, tx, s.event(shared.LedgerEventCashOutCompleted, entry, ps))
	})
	if err != nil {
		logUnitFailure(logger, "cashOut", err)
		return nil, err
	}
	if replayed {
		return winner, nil
	}

	logger.Info("Cash-out completed", "transaction_id", entry.ID.String(), "fee", fee)
	return entry, nil
}
