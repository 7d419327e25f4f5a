package shared

// TransactionType defines the kinds of wallet ledger entries
type TransactionType string

const (
	TransactionTypeSend          TransactionType = "send"
	TransactionTypeCashInRequest TransactionType = "cashInRequest"
	TransactionTypeCashOut       TransactionType = "cashOut"
)

// TransactionStatus defines ledger entry states.
// Cash-in requests move pending -> accepted; send and cash-out entries are written completed.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusAccepted  TransactionStatus = "accepted"
	TransactionStatusCompleted TransactionStatus = "completed"
)

// LedgerEventType defines the events emitted through the outbox
type LedgerEventType string

const (
	LedgerEventSendCompleted    LedgerEventType = "SEND_COMPLETED"
	LedgerEventCashInRequested  LedgerEventType = "CASH_IN_REQUESTED"
	LedgerEventCashInAccepted   LedgerEventType = "CASH_IN_ACCEPTED"
	LedgerEventCashOutCompleted LedgerEventType = "CASH_OUT_COMPLETED"
)

// PostingRole describes why an account's balance moved
type PostingRole string

const (
	PostingRoleSender   PostingRole = "SENDER"
	PostingRoleReceiver PostingRole = "RECEIVER"
	PostingRoleUser     PostingRole = "USER"
	PostingRoleAgent    PostingRole = "AGENT"
	PostingRoleFee      PostingRole = "FEE"
)

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
