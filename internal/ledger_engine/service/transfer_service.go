package service

import (
	"context"

	"github.com/artho-wallet-ledger/internal/domain/idempotency"
	"github.com/artho-wallet-ledger/internal/domain/ledger"
	"github.com/artho-wallet-ledger/internal/domain/shared"
	"github.com/jackc/pgx/v5"
)

type TransferService struct {
	core
}

func NewTransferService(deps Dependencies) *TransferService {
	return &TransferService{core: newCore(deps)}
}

// Send moves amount from the sender to the receiver and the fee to the revenue account
func (s *TransferService) Send(ctx context.Context, req *SendRequest) (*ledger.Entry, error) {
	logger := s.log(req.CorrelationID).With("sender_id", req.SenderID.String(), "amount", req.Amount)

	if req.Amount < ledger.MinSendAmount {
		return nil, shared.ErrAmountTooSmall
	}
	if replayed, err := s.lookupReplay(ctx, req.IdempotencyKey, idempotency.OperationSend, req.SenderID); err != nil || replayed != nil {
		if replayed != nil {
			logger.Info("Replaying send for idempotency key", "transaction_id", replayed.ID.String())
		}
		return replayed, err
	}

	sender, err := s.accountByID(ctx, req.SenderID, shared.ErrAccountNotFound)
	if err != nil {
		return nil, err
	}
	if err := requireApproved(sender); err != nil {
		return nil, err
	}
	if err := s.verifyPin(sender, req.Pin); err != nil {
		logger.Warn("Send rejected: pin check failed", "error", err)
		return nil, err
	}

	receiver, err := s.accountByMobile(ctx, req.ReceiverMobile, shared.ErrReceiverNotFound)
	if err != nil {
		return nil, err
	}
	if receiver.IsSystem() {
		logger.Warn("Send rejected: receiver is a system account", "receiver_id", receiver.ID.String())
		return nil, shared.ErrReceiverNotFound
	}
	if err := requireApproved(receiver); err != nil {
		return nil, err
	}
	if receiver.ID == sender.ID {
		return nil, shared.ErrSelfTransfer
	}

	fee := ledger.SendFee(req.Amount)
	entry := ledger.NewSendEntry(sender.ID, receiver.ID, req.Amount, fee, req.CorrelationID)
	if !sender.CanDebit(entry.Total()) {
		logger.Info("Send rejected: insufficient balance", "balance", sender.Balance, "total", entry.Total())
		return nil, shared.ErrInsufficientBalance
	}

	ps := postings(
		shared.Posting{AccountID: sender.ID, Delta: -entry.Total(), Role: shared.PostingRoleSender},
		shared.Posting{AccountID: receiver.ID, Delta: entry.Amount, Role: shared.PostingRoleReceiver},
		shared.Posting{AccountID: s.RevenueAccountID, Delta: fee, Role: shared.PostingRoleFee},
	)
	rec := idempotency.NewRecord(req.IdempotencyKey, idempotency.OperationSend, sender.ID, entry.ID)

	replayed, winner, err := s.runIdempotent(ctx, rec, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.Balances.Apply(ctx, tx, ps); err != nil {
			return err
		}
		if err := createEntry(ctx, s.Ledger.WithTx(tx), entry); err != nil {
			return err
		}
		return s.Outbox.Record(ctx, tx, s.event(shared.LedgerEventSendCompleted, entry, ps))
	})
	if err != nil {
		logUnitFailure(logger, "send", err)
		return nil, err
	}
	if replayed {
		logger.Info("Concurrent send with the same key won, replaying", "transaction_id", winner.ID.String())
		return winner, nil
	}

	logger.Info("Send completed", "transaction_id", entry.ID.String(), "receiver_id", receiver.ID.String(), "fee", fee)
	return entry, nil
}
