package service

import (
	"context"

	"github.com/artho-wallet-ledger/internal/domain/account"
	"github.com/artho-wallet-ledger/internal/domain/statement"
	"github.com/google/uuid"
)

// AccountService exposes read-only account lookups to handlers
type AccountService interface {
	// GetAccountByID returns shared.ErrAccountNotFound if the account doesn't exist
	GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

// StatementService reads the asynchronously projected statement
type StatementService interface {
	// GetStatement returns one page of lines, newest first, and the total line count
	GetStatement(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*statement.Line, int64, error)
}
