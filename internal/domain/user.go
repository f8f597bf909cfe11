package domain

import (
	"context"
)

// =============================================================================
// ACCOUNT DOMAIN ERRORS
// =============================================================================

var (
	ErrCustomerNotFound = &Error{Code: ENOTFOUND, Message: "Customer not found"}
	ErrNotEnoughBalance = &Error{Code: EPAYMENT, Message: "Balance cannot become negative"}
)

// =============================================================================
// ACCOUNT DOMAIN TYPES
// =============================================================================

// Roles carried in X-Auth-Token claims.
const (
	RoleCustomer = "CUSTOMER"
	RoleSeller   = "SELLER"
)

// User is the authenticated caller. Token is the raw X-Auth-Token, forwarded
// to the account ledger so it can act for the caller.
type User struct {
	ID    int64
	Email string
	Role  string
	Token string
}

// Is reports whether u is non-nil and holds role.
func (u *User) Is(role string) bool {
	return u != nil && u.Role == role
}

// Contact is where order confirmations are sent.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Customer is the account view the order committer needs.
type Customer struct {
	ID      int64  `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
}

// Contact returns the customer's notification address.
func (c *Customer) Contact() Contact {
	return Contact{Name: c.Name, Email: c.Email}
}

// AccountLedger holds customer balances. The token identifies the customer.
type AccountLedger interface {
	GetBalance(ctx context.Context, token string) (int64, error)
	GetCustomer(ctx context.Context, token string) (*Customer, error)

	// ChangeBalance applies delta and returns the new balance.
	// Returns ErrNotEnoughBalance when the result would be negative.
	ChangeBalance(ctx context.Context, token string, delta int64, reason string) (int64, error)
}
