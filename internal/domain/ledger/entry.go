package ledger

import (
	"time"

	"github.com/artho-wallet-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Entry is one row of the wallet transaction log
type Entry struct {
	ID            uuid.UUID                `json:"id"`
	Type          shared.TransactionType   `json:"type"`
	SenderID      *uuid.UUID               `json:"sender_id,omitempty"`
	ReceiverID    *uuid.UUID               `json:"receiver_id,omitempty"`
	AgentMobile   string                   `json:"agent_mobile,omitempty"`
	UserMobile    string                   `json:"user_mobile,omitempty"`
	Amount        int64                    `json:"amount"`
	Fee           int64                    `json:"fee"`
	Status        shared.TransactionStatus `json:"status"`
	CorrelationID string                   `json:"correlation_id,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
	AcceptedAt    *time.Time               `json:"accepted_at,omitempty"`
}

// NewSendEntry builds a completed peer transfer
func NewSendEntry(senderID, receiverID uuid.UUID, amount, fee int64, correlationID string) *Entry {
	return &Entry{
		ID:            uuid.New(),
		Type:          shared.TransactionTypeSend,
		SenderID:      &senderID,
		ReceiverID:    &receiverID,
		Amount:        amount,
		Fee:           fee,
		Status:        shared.TransactionStatusCompleted,
		CorrelationID: correlationID,
		CreatedAt:     time.Now().UTC(),
	}
}

// NewCashInRequest builds a pending request; it has no balance effect until accepted
func NewCashInRequest(agentMobile, userMobile string, amount int64, correlationID string) *Entry {
	return &Entry{
		ID:            uuid.New(),
		Type:          shared.TransactionTypeCashInRequest,
		AgentMobile:   agentMobile,
		UserMobile:    userMobile,
		Amount:        amount,
		Status:        shared.TransactionStatusPending,
		CorrelationID: correlationID,
		CreatedAt:     time.Now().UTC(),
	}
}

// NewCashOutEntry builds a completed withdrawal through an agent
func NewCashOutEntry(userMobile, agentMobile string, amount, fee int64, correlationID string) *Entry {
	return &Entry{
		ID:            uuid.New(),
		Type:          shared.TransactionTypeCashOut,
		AgentMobile:   agentMobile,
		UserMobile:    userMobile,
		Amount:        amount,
		Fee:           fee,
		Status:        shared.TransactionStatusCompleted,
		CorrelationID: correlationID,
		CreatedAt:     time.Now().UTC(),
	}
}

func (e *Entry) IsPending() bool {
	return e.Status == shared.TransactionStatusPending
}

// Total is what the debited side pays
func (e *Entry) Total() int64 {
	return e.Amount + e.Fee
}
