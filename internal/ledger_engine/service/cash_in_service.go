package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/artho-wallet-ledger/internal/domain/idempotency"
	"github.com/artho-wallet-ledger/internal/domain/ledger"
	"github.com/artho-wallet-ledger/internal/domain/shared"
	"github.com/jackc/pgx/v5"
)

type CashInService struct {
	core
}

func NewCashInService(deps Dependencies) *CashInService {
	return &CashInService{core: newCore(deps)}
}

// SubmitCashInRequest records a pending deposit the agent still has to accept.
// Only the user the money is for may submit it.
func (s *CashInService) SubmitCashInRequest(ctx context.Context, req *SubmitCashInRequest) (*ledger.Entry, error) {
	logger := s.log(req.CorrelationID).With("agent_mobile", req.AgentMobile, "user_mobile", req.UserMobile)

	if req.Amount <= 0 {
		return nil, shared.ErrInvalidAmount
	}
	if _, err := s.agentByMobile(ctx, req.AgentMobile); err != nil {
		return nil, err
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

	entry := ledger.NewCashInRequest(req.AgentMobile, req.UserMobile, req.Amount, req.CorrelationID)
	err = s.Runner.Run(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := createEntry(ctx, s.Ledger.WithTx(tx), entry); err != nil {
			return err
		}
		return s.Outbox.Record(ctx, tx, s.event(shared.LedgerEventCashInRequested, entry, nil))
	})
	if err != nil {
		logUnitFailure(logger, "submitCashInRequest", err)
		return nil, err
	}

	logger.Info("Cash-in request submitted", "transaction_id", entry.ID.String(), "amount", entry.Amount)
	return entry, nil
}

// ListCashInRequests returns every request addressed to the calling agent, newest first
func (s *CashInService) ListCashInRequests(ctx context.Context, req *ListCashInRequests) ([]*ledger.Entry, error) {
	agent, err := s.accountByMobile(ctx, req.AgentMobile, shared.ErrAgentNotFound)
	if err != nil {
		return nil, err
	}
	if !agent.IsAgent() {
		return nil, shared.ErrAgentNotFound
	}
	if agent.ID != req.CallerID {
		return nil, shared.ErrForbidden
	}

	entries, err := s.Ledger.ListCashInRequests(ctx, agent.Mobile)
	if err != nil {
		return nil, shared.Internal(err)
	}
	return entries, nil
}

// AcceptCashInRequest moves a pending request to accepted and credits the user
// from the agent's balance. Of two concurrent accepts exactly one applies.
func (s *CashInService) AcceptCashInRequest(ctx context.Context, req *AcceptCashInRequest) (*ledger.Entry, error) {
	logger := s.log(req.CorrelationID).With("request_id", req.RequestID.String())

	if req.IdempotencyKey == "" {
		return nil, shared.ErrIdempotencyKeyRequired
	}
	request, err := s.Ledger.GetByID(ctx, req.RequestID)
	if err != nil {
		if errors.Is(err, ledger.ErrEntryNotFound{}) {
			return nil, shared.ErrRequestNotFound.WithCause(err)
		}
		return nil, shared.Internal(err)
	}
	if request.Type != shared.TransactionTypeCashInRequest {
		return nil, shared.ErrRequestNotFound
	}

	rec, err := s.Idempotency.Lookup(ctx, req.IdempotencyKey, idempotency.OperationCashInAccept, req.CallerID)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		if rec.TransactionID != request.ID {
			return nil, shared.ErrIdempotencyKeyReused
		}
		logger.Info("Replaying cash-in accept for idempotency key")
		return request, nil
	}

	if !request.IsPending() {
		return nil, shared.ErrAlreadyAccepted
	}
	if err := matchesStored(request, req); err != nil {
		return nil, err
	}

	agent, err := s.agentByMobile(ctx, request.AgentMobile)
	if err != nil {
		return nil, err
	}
	if agent.ID != req.CallerID {
		return nil, shared.ErrForbidden
	}
	user, err := s.accountByMobile(ctx, request.UserMobile, shared.ErrAccountNotFound)
	if err != nil {
		return nil, err
	}
	if err := requireApproved(user); err != nil {
		return nil, err
	}
	if !agent.CanDebit(request.Amount) {
		logger.Info("Accept rejected: agent balance too low", "balance", agent.Balance, "amount", request.Amount)
		return nil, shared.ErrInsufficientBalance
	}

	acceptedAt := s.Now().UTC()
	accepted := *request
	accepted.Status = shared.TransactionStatusAccepted
	accepted.AcceptedAt = &acceptedAt
	if req.CorrelationID != "" {
		accepted.CorrelationID = req.CorrelationID
	}

	ps := postings(
		shared.Posting{AccountID: user.ID, Delta: request.Amount, Role: shared.PostingRoleUser},
		shared.Posting{AccountID: agent.ID, Delta: -request.Amount, Role: shared.PostingRoleAgent},
	)
	claim := idempotency.NewRecord(req.IdempotencyKey, idempotency.OperationCashInAccept, req.CallerID, request.ID)

	replayed, winner, err := s.runIdempotent(ctx, claim, func(ctx context.Context, tx pgx.Tx) error {
		err := s.Ledger.WithTx(tx).UpdateStatus(ctx, request.ID, shared.TransactionStatusPending, shared.TransactionStatusAccepted, acceptedAt)
		if err != nil {
			if errors.Is(err, ledger.ErrStatusConflict{}) {
				return shared.ErrAlreadyAccepted.WithCause(err)
			}
			return shared.Internal(err)
		}
		if err := s.Balances.Apply(ctx, tx, ps); err != nil {
			return err
		}
		return s.Outbox.Record(ctx, tx, s.event(shared.LedgerEventCashInAccepted, &accepted, ps))
	})
	if err != nil {
		logUnitFailure(logger, "acceptCashInRequest", err)
		return nil, err
	}
	if replayed {
		return winner, nil
	}

	logger.Info("Cash-in request accepted", "amount", request.Amount, "user_id", user.ID.String(), "agent_id", agent.ID.String())
	return &accepted, nil
}

// matchesStored rejects optional body fields that disagree with the stored request
func matchesStored(stored *ledger.Entry, req *AcceptCashInRequest) error {
	switch {
	case req.AgentMobile != "" && req.AgentMobile != stored.AgentMobile:
		return shared.ErrRequestMismatch.WithCause(fmt.Errorf("agent mobile %q", req.AgentMobile))
	case req.UserMobile != "" && req.UserMobile != stored.UserMobile:
		return shared.ErrRequestMismatch.WithCause(fmt.Errorf("user mobile %q", req.UserMobile))
	case req.Amount != 0 && req.Amount != stored.Amount:
		return shared.ErrRequestMismatch.WithCause(fmt.Errorf("amount %d", req.Amount))
	}
	return nil
}
