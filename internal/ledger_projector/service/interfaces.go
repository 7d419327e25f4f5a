package service

import (
	"context"

	"github.com/artho-wallet-ledger/internal/domain/shared"
)

// ProjectionService applies a consumed ledger event to the read models.
// Implementations must be idempotent: Kafka delivers at least once.
type ProjectionService interface {
	Project(ctx context.Context, event *shared.LedgerEvent) error
}
