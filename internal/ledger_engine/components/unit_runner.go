package components

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/artho-wallet-ledger/internal/domain/shared"
	"github.com/artho-wallet-ledger/internal/ledger_engine/service"
	"github.com/jackc/pgx/v5"
)

// TxExecutor runs fn inside one database transaction; *persistence.PostgresDB implements it
type TxExecutor interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type UnitRunnerImpl struct {
	db      TxExecutor
	timeout time.Duration
	logger  *slog.Logger
}

func NewUnitRunner(db TxExecutor, timeout time.Duration, logger *slog.Logger) service.UnitRunner {
	return &UnitRunnerImpl{
		db:      db,
		timeout: timeout,
		logger:  logger,
	}
}

// Run executes fn under the unit timeout. Definite failures returned by fn pass
// through; a unit cut short by its deadline or by cancellation reports
// shared.ErrOutcomeUnknown since the commit may or may not have landed.
func (r *UnitRunnerImpl) Run(ctx context.Context, fn service.UnitFunc) error {
	unitCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	started := time.Now()
	err := r.db.ExecuteTx(unitCtx, func(tx pgx.Tx) error {
		return fn(unitCtx, tx)
	})
	if err == nil {
		return nil
	}

	var walletErr *shared.Error
	isWalletErr := errors.As(err, &walletErr)
	if isWalletErr && walletErr.Kind != shared.ErrorKindInternal {
		return err
	}

	if unitCtx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		r.logger.Warn("Ledger unit ended without a definite outcome",
			"elapsed", time.Since(started),
			"timeout", r.timeout,
			"error", err,
		)
		return shared.OutcomeUnknown(err)
	}

	if isWalletErr {
		return err
	}
	return shared.Internal(err)
}
