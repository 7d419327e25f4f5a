package handler

// SendRequest is the body of POST /transfers; the sender is the caller
type SendRequest struct {
	ReceiverMobile string `json:"receiver_mobile" binding:"required"`
	Amount         int64  `json:"amount"`
	Pin            string `json:"pin" binding:"required"`
}

// CashInRequest is the body of POST /cash-in-requests
type CashInRequest struct {
	AgentMobile string `json:"agent_mobile" binding:"required"`
	UserMobile  string `json:"user_mobile" binding:"required"`
	Amount      int64  `json:"amount"`
}

// AcceptCashInRequest identifies the request to accept. The other fields are
// optional and must match the stored request when present.
type AcceptCashInRequest struct {
	RequestID   string `json:"request_id" binding:"required,uuid"`
	AgentMobile string `json:"agent_mobile,omitempty"`
	UserMobile  string `json:"user_mobile,omitempty"`
	Amount      int64  `json:"amount,omitempty"`
}

// CashOutRequest is the body of POST /cash-outs
type CashOutRequest struct {
	UserMobile  string `json:"user_mobile" binding:"required"`
	AgentMobile string `json:"agent_mobile" binding:"required"`
	Amount      int64  `json:"amount"`
	Pin         string `json:"pin" binding:"required"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Mobile    string `json:"mobile"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	Balance   int64  `json:"balance"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// TransactionResponse represents a transaction log entry in API responses
type TransactionResponse struct {
	TransactionID string `json:"transaction_id"`
	Type          string `json:"type"`
	SenderID      string `json:"sender_id,omitempty"`
	ReceiverID    string `json:"receiver_id,omitempty"`
	AgentMobile   string `json:"agent_mobile,omitempty"`
	UserMobile    string `json:"user_mobile,omitempty"`
	Amount        int64  `json:"amount"`
	Fee           int64  `json:"fee"`
	Total         int64  `json:"total"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
	AcceptedAt    string `json:"accepted_at,omitempty"`
}

// TransactionListResponse represents a list of transactions in API responses
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}

// StatementLineResponse is one projected statement line
type StatementLineResponse struct {
	TransactionID   string `json:"transaction_id"`
	EventType       string `json:"event_type"`
	TransactionType string `json:"transaction_type"`
	Role            string `json:"role"`
	Delta           int64  `json:"delta"`
	Amount          int64  `json:"amount"`
	Fee             int64  `json:"fee"`
	OccurredAt      string `json:"occurred_at"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
