package service

import "github.com/google/uuid"

type SendRequest struct {
	SenderID       uuid.UUID
	ReceiverMobile string
	Amount         int64
	Pin            string
	IdempotencyKey string
	CorrelationID  string
}

type SubmitCashInRequest struct {
	CallerID      uuid.UUID
	AgentMobile   string
	UserMobile    string
	Amount        int64
	CorrelationID string
}

type ListCashInRequests struct {
	CallerID    uuid.UUID
	AgentMobile string
}

// AcceptCashInRequest identifies the request by id. AgentMobile, UserMobile and
// Amount are optional; when set they must agree with the stored request.
type AcceptCashInRequest struct {
	CallerID       uuid.UUID
	RequestID      uuid.UUID
	AgentMobile    string
	UserMobile     string
	Amount         int64
	IdempotencyKey string
	CorrelationID  string
}

type CashOutRequest struct {
	CallerID       uuid.UUID
	UserMobile     string
	AgentMobile    string
	Amount         int64
	Pin            string
	IdempotencyKey string
	CorrelationID  string
}

type HistoryRequest struct {
	CallerID uuid.UUID
	Mobile   string
}
