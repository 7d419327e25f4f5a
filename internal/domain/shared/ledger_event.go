package shared

import (
	"time"

	"github.com/google/uuid"
)

// Posting is a single signed balance movement applied by a ledger operation
type Posting struct {
	AccountID uuid.UUID   `json:"account_id"`
	Delta     int64       `json:"delta"`
	Role      PostingRole `json:"role"`
}

// LedgerEvent is written to the outbox in the same database transaction as the
// balance change it describes, then published to Kafka by the outbox poller.
type LedgerEvent struct {
	EventID         uuid.UUID         `json:"event_id"`
	EventType       LedgerEventType   `json:"event_type"`
	TransactionID   uuid.UUID         `json:"transaction_id"`
	TransactionType TransactionType   `json:"transaction_type"`
	Status          TransactionStatus `json:"status"`
	Amount          int64             `json:"amount"`
	Fee             int64             `json:"fee"`
	AgentMobile     string            `json:"agent_mobile,omitempty"`
	UserMobile      string            `json:"user_mobile,omitempty"`
	Postings        []Posting         `json:"postings,omitempty"`
	CorrelationID   string            `json:"correlation_id,omitempty"`
	OccurredAt      time.Time         `json:"occurred_at"`
}

// NetDelta sums every posting; a balanced event nets to zero
func (e *LedgerEvent) NetDelta() int64 {
	var sum int64
	for _, p := range e.Postings {
		sum += p.Delta
	}
	return sum
}
