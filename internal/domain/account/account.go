package account

import (
	"time"

	"github.com/google/uuid"
)

// Role is the kind of participant an account represents
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
	RoleAdmin    Role = "admin"
	RoleSystem   Role = "system" // fee revenue
)

// Status is the approval state set by the external registration flow
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusBlocked  Status = "blocked"
)

// Account represents a wallet holder
type Account struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Mobile    string    `json:"mobile"`
	Email     string    `json:"email,omitempty"`
	Role      Role      `json:"role"`
	Status    Status    `json:"status"`
	Balance   int64     `json:"balance"` // smallest currency unit
	PinHash   string    `json:"-"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Account) IsApproved() bool {
	return a.Status == StatusApproved
}

func (a *Account) IsAgent() bool {
	return a.Role == RoleAgent
}

func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsSystem reports whether the account is internal bookkeeping rather than a wallet
func (a *Account) IsSystem() bool {
	return a.Role == RoleSystem
}

// CanDebit checks if the balance covers a debit of total
func (a *Account) CanDebit(total int64) bool {
	return total >= 0 && a.Balance >= total
}

// BalanceDelta is a signed change to a single account balance
type BalanceDelta struct {
	AccountID uuid.UUID
	Amount    int64
}
