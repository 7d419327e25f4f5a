package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/artho-wallet-ledger/internal/domain/shared"
	"github.com/artho-wallet-ledger/internal/domain/statement"
	"github.com/google/uuid"
)

// StatementServiceImpl implements StatementService on the Mongo projection
type StatementServiceImpl struct {
	statementRepo statement.Repository
	logger        *slog.Logger
}

func NewStatementService(statementRepo statement.Repository, logger *slog.Logger) StatementService {
	return &StatementServiceImpl{
		statementRepo: statementRepo,
		logger:        logger,
	}
}

// GetStatement counts first so an empty account answers without a second round trip
func (s *StatementServiceImpl) GetStatement(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*statement.Line, int64, error) {
	if page < 1 || perPage < 1 {
		return nil, 0, shared.ErrInvalidPage
	}

	total, err := s.statementRepo.CountByAccountID(ctx, accountID)
	if err != nil {
		return nil, 0, shared.Internal(fmt.Errorf("failed to count statement lines: %w", err))
	}
	if total == 0 {
		return []*statement.Line{}, 0, nil
	}

	offset := (page - 1) * perPage
	lines, err := s.statementRepo.GetByAccountID(ctx, accountID, perPage, offset)
	if err != nil {
		return nil, 0, shared.Internal(fmt.Errorf("failed to read statement page %d: %w", page, err))
	}

	s.logger.Debug("Statement page read",
		"account_id", accountID.String(),
		"page", page,
		"lines", len(lines),
		"total", total,
	)
	return lines, total, nil
}
