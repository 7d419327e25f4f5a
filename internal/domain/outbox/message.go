package outbox

import (
	"encoding/json"
	"time"

	"github.com/artho-wallet-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Message carries a ledger event from the database transaction to Kafka
type Message struct {
	ID            int64                  `json:"id"`
	TransactionID uuid.UUID              `json:"transaction_id"`
	EventType     shared.LedgerEventType `json:"event_type"`
	Payload       json.RawMessage        `json:"payload"`
	Status        shared.OutboxStatus    `json:"status"`
	Attempts      int                    `json:"attempts"`
	CreatedAt     time.Time              `json:"created_at"`
	LastAttemptAt *time.Time             `json:"last_attempt_at,omitempty"`
}

func NewMessage(event *shared.LedgerEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Message{
		TransactionID: event.TransactionID,
		EventType:     event.EventType,
		Payload:       payload,
		Status:        shared.OutboxStatusPending,
		CreatedAt:     time.Now(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// LedgerEvent decodes the payload
func (m *Message) LedgerEvent() (*shared.LedgerEvent, error) {
	var event shared.LedgerEvent
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
