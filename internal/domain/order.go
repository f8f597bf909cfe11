package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ORDER DOMAIN ERRORS
// =============================================================================

var (
	ErrCartEmpty                 = &Error{Code: EINVALID, Message: "Cart is empty"}
	ErrOrderFailCheckCart        = &Error{Code: ECONFLICT, Message: "Cart changed since it was last viewed, please review it before ordering"}
	ErrOrderFailNotEnoughBalance = &Error{Code: EPAYMENT, Message: "Not enough balance for this order"}
)

// =============================================================================
// ORDER DOMAIN TYPES
// =============================================================================

// OrderResult is returned after a successful commit.
type OrderResult struct {
	OrderID     uuid.UUID `json:"orderId"`
	Cart        *Cart     `json:"cart"`
	Total       int64     `json:"total"`
	CommittedAt time.Time `json:"committedAt"`
}

// OrderSummaryLine is one ordered item.
type OrderSummaryLine struct {
	ProductName string
	ItemName    string
	Price       int64
	Count       int
}

// OrderSummary is what the notifier receives about a committed order.
type OrderSummary struct {
	OrderID     uuid.UUID
	CustomerID  int64
	Lines       []OrderSummaryLine
	Total       int64
	CommittedAt time.Time
}

// NewOrderSummary flattens a committed cart into summary lines.
func NewOrderSummary(result *OrderResult) OrderSummary {
	summary := OrderSummary{
		OrderID:     result.OrderID,
		Total:       result.Total,
		CommittedAt: result.CommittedAt,
	}
	if result.Cart == nil {
		return summary
	}
	summary.CustomerID = result.Cart.CustomerID
	for _, p := range result.Cart.Products {
		for _, item := range p.Items {
			summary.Lines = append(summary.Lines, OrderSummaryLine{
				ProductName: p.Name,
				ItemName:    item.Name,
				Price:       item.Price,
				Count:       item.Count,
			})
		}
	}
	return summary
}

// =============================================================================
// ORDER COLLABORATORS
// =============================================================================

// Notifier delivers order confirmations. Failures never roll back an order.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, contact Contact, summary OrderSummary) error
}

// OrderService commits carts as orders.
type OrderService interface {
	// Order re-reconciles the cart, checks the balance, debits it, and decrements stock.
	// A stock failure after the debit is compensated before the error is returned.
	Order(ctx context.Context, token string, cart *Cart) (*OrderResult, error)
}
