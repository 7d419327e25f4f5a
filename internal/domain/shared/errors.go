package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies wallet failures for callers and the HTTP layer
type ErrorKind string

const (
	ErrorKindValidation        ErrorKind = "VALIDATION"
	ErrorKindNotFound          ErrorKind = "NOT_FOUND"
	ErrorKindAuth              ErrorKind = "AUTH"
	ErrorKindConflict          ErrorKind = "CONFLICT"
	ErrorKindInsufficientFunds ErrorKind = "INSUFFICIENT_FUNDS"
	ErrorKindOutcomeUnknown    ErrorKind = "OUTCOME_UNKNOWN"
	ErrorKindInternal          ErrorKind = "INTERNAL"
)

// Error is the error type returned by every ledger operation.
// Two errors match under errors.Is when their codes are equal.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements the errors.Is interface, matching on Code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of e carrying err as its cause
func (e *Error) WithCause(err error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, Err: err}
}

func newError(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrAmountTooSmall         = newError(ErrorKindValidation, "AMOUNT_TOO_SMALL", "amount is below the minimum transfer amount")
	ErrInvalidAmount          = newError(ErrorKindValidation, "INVALID_AMOUNT", "amount must be positive")
	ErrIdempotencyKeyRequired = newError(ErrorKindValidation, "IDEMPOTENCY_KEY_REQUIRED", "an idempotency key is required")
	ErrSelfTransfer           = newError(ErrorKindValidation, "SELF_TRANSFER", "sender and receiver must differ")
	ErrRequestMismatch        = newError(ErrorKindValidation, "REQUEST_MISMATCH", "request details do not match the stored cash-in request")
	ErrInvalidRequest         = newError(ErrorKindValidation, "INVALID_REQUEST", "request body or parameters are invalid")
	ErrInvalidPage            = newError(ErrorKindValidation, "INVALID_PAGE", "page and per_page must be positive")

	ErrAccountNotFound  = newError(ErrorKindNotFound, "ACCOUNT_NOT_FOUND", "account not found")
	ErrReceiverNotFound = newError(ErrorKindNotFound, "RECEIVER_NOT_FOUND", "receiver not found")
	ErrAgentNotFound    = newError(ErrorKindNotFound, "AGENT_NOT_FOUND", "agent not found")
	ErrRequestNotFound  = newError(ErrorKindNotFound, "REQUEST_NOT_FOUND", "cash-in request not found")

	ErrUnauthorized       = newError(ErrorKindAuth, "UNAUTHORIZED", "credential is missing")
	ErrInvalidCredential  = newError(ErrorKindAuth, "INVALID_CREDENTIAL", "credential is malformed or expired")
	ErrInvalidPin         = newError(ErrorKindAuth, "INVALID_PIN", "invalid pin")
	ErrAccountNotApproved = newError(ErrorKindAuth, "ACCOUNT_NOT_APPROVED", "account is not approved")
	ErrForbidden          = newError(ErrorKindAuth, "FORBIDDEN", "caller may not act on this resource")

	ErrAlreadyAccepted      = newError(ErrorKindConflict, "ALREADY_ACCEPTED", "cash-in request was already accepted")
	ErrIdempotencyKeyReused = newError(ErrorKindConflict, "IDEMPOTENCY_KEY_REUSED", "idempotency key was used for a different request")
	ErrRequestInProgress    = newError(ErrorKindConflict, "REQUEST_IN_PROGRESS", "a request with this idempotency key is still being processed")

	ErrInsufficientBalance = newError(ErrorKindInsufficientFunds, "INSUFFICIENT_BALANCE", "insufficient balance")

	ErrOutcomeUnknown = newError(ErrorKindOutcomeUnknown, "OUTCOME_UNKNOWN", "operation timed out, outcome unknown; retry with the same idempotency key")
	ErrInternal       = newError(ErrorKindInternal, "INTERNAL", "internal error")
)

// Internal wraps a storage or infrastructure failure
func Internal(err error) *Error {
	return ErrInternal.WithCause(err)
}

// OutcomeUnknown wraps a failure whose effect on storage cannot be determined
func OutcomeUnknown(err error) *Error {
	return ErrOutcomeUnknown.WithCause(err)
}

// KindOf returns the kind of a wallet error, or ErrorKindInternal for anything else
func KindOf(err error) ErrorKind {
	var walletErr *Error
	if errors.As(err, &walletErr) {
		return walletErr.Kind
	}
	return ErrorKindInternal
}
