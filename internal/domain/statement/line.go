package statement

import (
	"context"
	"time"

	"github.com/artho-wallet-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Line is one account's view of a ledger event, projected asynchronously
type Line struct {
	TransactionID   uuid.UUID                `json:"transaction_id" bson:"transaction_id"`
	AccountID       uuid.UUID                `json:"account_id" bson:"account_id"`
	EventType       shared.LedgerEventType   `json:"event_type" bson:"event_type"`
	TransactionType shared.TransactionType   `json:"transaction_type" bson:"transaction_type"`
	Role            shared.PostingRole       `json:"role" bson:"role"`
	Delta           int64                    `json:"delta" bson:"delta"`
	Amount          int64                    `json:"amount" bson:"amount"`
	Fee             int64                    `json:"fee" bson:"fee"`
	Status          shared.TransactionStatus `json:"status" bson:"status"`
	CorrelationID   string                   `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	OccurredAt      time.Time                `json:"occurred_at" bson:"occurred_at"`
	ProjectedAt     time.Time                `json:"projected_at" bson:"projected_at"`
}

// LinesFromEvent expands every posting of an event into a statement line
func LinesFromEvent(event *shared.LedgerEvent, projectedAt time.Time) []*Line {
	lines := make([]*Line, 0, len(event.Postings))
	for _, p := range event.Postings {
		lines = append(lines, &Line{
			TransactionID:   event.TransactionID,
			AccountID:       p.AccountID,
			EventType:       event.EventType,
			TransactionType: event.TransactionType,
			Role:            p.Role,
			Delta:           p.Delta,
			Amount:          event.Amount,
			Fee:             event.Fee,
			Status:          event.Status,
			CorrelationID:   event.CorrelationID,
			OccurredAt:      event.OccurredAt,
			ProjectedAt:     projectedAt,
		})
	}
	return lines
}

// Repository stores projected statement lines with pagination support
type Repository interface {
	// Upsert is keyed by (transaction_id, account_id) so redelivered events are harmless
	Upsert(ctx context.Context, line *Line) error
	GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Line, error)
	CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error)
}
