package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/artho-wallet-ledger/internal/domain/shared"
	"github.com/artho-wallet-ledger/internal/domain/statement"
)

// ErrUnprojectable marks events that will never project, however often they are retried
var ErrUnprojectable = errors.New("unprojectable ledger event")

// StatementProjectionService writes one statement line per posting of an event
type StatementProjectionService struct {
	statementRepo statement.Repository
	logger        *slog.Logger
	now           func() time.Time
}

func NewStatementProjectionService(statementRepo statement.Repository, logger *slog.Logger) *StatementProjectionService {
	return &StatementProjectionService{
		statementRepo: statementRepo,
		logger:        logger,
		now:           time.Now,
	}
}

// Project upserts the event's lines. Events without postings, such as a
// submitted cash-in request, move no money and leave the statement alone.
func (s *StatementProjectionService) Project(ctx context.Context, event *shared.LedgerEvent) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	if net := event.NetDelta(); net != 0 {
		logger.Error("Refusing to project unbalanced ledger event",
			"transaction_id", event.TransactionID.String(),
			"event_type", event.EventType,
			"net_delta", net,
		)
		return fmt.Errorf("%w: event %s for tx %s nets to %d", ErrUnprojectable, event.EventID, event.TransactionID, net)
	}

	lines := statement.LinesFromEvent(event, s.now().UTC())
	for _, line := range lines {
		if err := s.statementRepo.Upsert(ctx, line); err != nil {
			return fmt.Errorf("failed to project tx %s for account %s: %w", event.TransactionID, line.AccountID, err)
		}
	}

	logger.Info("Projected ledger event",
		"transaction_id", event.TransactionID.String(),
		"event_type", event.EventType,
		"lines", len(lines),
	)
	return nil
}

var _ ProjectionService = (*StatementProjectionService)(nil)
