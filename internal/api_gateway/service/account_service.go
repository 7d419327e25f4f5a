package service

import (
	"context"
	"errors"

	"github.com/artho-wallet-ledger/internal/domain/account"
	"github.com/artho-wallet-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountServiceImpl implements the AccountService interface
type AccountServiceImpl struct {
	accountRepo account.Repository
}

func NewAccountService(accountRepo account.Repository) AccountService {
	return &AccountServiceImpl{
		accountRepo: accountRepo,
	}
}

func (s *AccountServiceImpl) GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	acc, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			return nil, shared.ErrAccountNotFound.WithCause(err)
		}
		return nil, shared.Internal(err)
	}
	return acc, nil
}
