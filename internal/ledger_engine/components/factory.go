package components

import (
	"log/slog"

	"github.com/artho-wallet-ledger/internal/config"
	"github.com/artho-wallet-ledger/internal/domain/account"
	"github.com/artho-wallet-ledger/internal/domain/idempotency"
	"github.com/artho-wallet-ledger/internal/domain/ledger"
	"github.com/artho-wallet-ledger/internal/domain/outbox"
	"github.com/artho-wallet-ledger/internal/ledger_engine/service"
)

// Repositories are the stores the engine writes through
type Repositories struct {
	Accounts    account.Repository
	Ledger      ledger.Repository
	Outbox      outbox.Repository
	Idempotency idempotency.Repository
}

// CreateLedgerEngine wires the processors with their components
func CreateLedgerEngine(
	db TxExecutor,
	repos Repositories,
	pins service.PinVerifier,
	logger *slog.Logger,
	cfg *config.LedgerConfig,
) *service.Engine {
	engineLogger := logger.With("component", "ledger_engine")

	deps := service.Dependencies{
		Accounts:         repos.Accounts,
		Ledger:           repos.Ledger,
		Runner:           NewUnitRunner(db, cfg.UnitTimeout, engineLogger),
		Balances:         NewBalanceManager(repos.Accounts, engineLogger),
		Outbox:           NewOutboxManager(repos.Outbox, engineLogger),
		Idempotency:      NewIdempotencyGuard(repos.Idempotency, engineLogger),
		Pins:             pins,
		RevenueAccountID: cfg.RevenueAccountID,
		Logger:           engineLogger,
	}

	logger.Info("Created ledger engine",
		"unit_timeout", cfg.UnitTimeout,
		"revenue_account_id", cfg.RevenueAccountID.String(),
	)
	return service.NewEngine(deps)
}
