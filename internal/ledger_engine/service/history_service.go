package service

import (
	"context"

	"github.com/artho-wallet-ledger/internal/domain/ledger"
	"github.com/artho-wallet-ledger/internal/domain/shared"
)

type HistoryService struct {
	core
}

func NewHistoryService(deps Dependencies) *HistoryService {
	return &HistoryService{core: newCore(deps)}
}

// History returns at most ledger.HistoryLimit entries, newest first.
// Callers may read their own history; admins may read anyone's.
func (s *HistoryService) History(ctx context.Context, req *HistoryRequest) ([]*ledger.Entry, error) {
	acc, err := s.accountByMobile(ctx, req.Mobile, shared.ErrAccountNotFound)
	if err != nil {
		return nil, err
	}
	if acc.ID != req.CallerID {
		caller, err := s.accountByID(ctx, req.CallerID, shared.ErrForbidden)
		if err != nil {
			return nil, err
		}
		if !caller.IsAdmin() {
			return nil, shared.ErrForbidden
		}
	}

	entries, err := s.Ledger.QueryRecent(ctx, ledger.RecentFilter{AccountID: acc.ID, Mobile: acc.Mobile}, ledger.HistoryLimit)
	if err != nil {
		return nil, shared.Internal(err)
	}
	if len(entries) > ledger.HistoryLimit {
		entries = entries[:ledger.HistoryLimit]
	}
	return entries, nil
}
