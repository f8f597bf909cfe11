package domain

import (
	"context"
)

// =============================================================================
// CART DOMAIN ERRORS
// =============================================================================

var (
	ErrInvalidQuantity    = &Error{Code: EINVALID, Message: "Quantity must be greater than 0"}
	ErrNotEnoughItemCount = &Error{Code: ECONFLICT, Message: "Not enough stock for the requested quantity"}
	ErrDuplicateCartLine  = &Error{Code: EINVALID, Message: "Cart lists the same product or item more than once"}
)

// =============================================================================
// CART DOMAIN TYPES
// =============================================================================

// CartItem is a cached copy of a catalog item. Price may go stale between reconciles.
type CartItem struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Count int    `json:"count"`
}

// CartProduct groups the cart items of one catalog product.
// Items is never empty while the product is in the cart.
type CartProduct struct {
	ID          int64      `json:"id"`
	SellerID    int64      `json:"sellerId"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Items       []CartItem `json:"items"`
}

// Item returns a pointer to the cart item with id, or nil.
func (p *CartProduct) Item(id int64) *CartItem {
	for i := range p.Items {
		if p.Items[i].ID == id {
			return &p.Items[i]
		}
	}
	return nil
}

// Cart is the single stored cart of a customer.
type Cart struct {
	CustomerID int64         `json:"customerId"`
	Products   []CartProduct `json:"products"`
}

// NewCart returns an empty cart for the customer.
func NewCart(customerID int64) *Cart {
	return &Cart{CustomerID: customerID, Products: []CartProduct{}}
}

// Product returns a pointer to the cart product with id, or nil.
func (c *Cart) Product(id int64) *CartProduct {
	for i := range c.Products {
		if c.Products[i].ID == id {
			return &c.Products[i]
		}
	}
	return nil
}

// IsEmpty reports whether the cart holds no products.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Products) == 0
}

// ProductIDs returns the product ids in cart order.
func (c *Cart) ProductIDs() []int64 {
	ids := make([]int64, 0, len(c.Products))
	for _, p := range c.Products {
		ids = append(ids, p.ID)
	}
	return ids
}

// Total returns the sum of price times count over every item.
func (c *Cart) Total() int64 {
	var total int64
	for _, p := range c.Products {
		for _, item := range p.Items {
			total += item.Price * int64(item.Count)
		}
	}
	return total
}

// Clone returns a deep copy of the cart.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := &Cart{CustomerID: c.CustomerID, Products: make([]CartProduct, len(c.Products))}
	for i, p := range c.Products {
		p.Items = append([]CartItem(nil), p.Items...)
		out.Products[i] = p
	}
	return out
}

// CartView is a cart together with the divergence messages produced while building it.
// Messages are handed to the caller once and never stored.
type CartView struct {
	Cart     *Cart    `json:"cart"`
	Messages []string `json:"messages"`
}

// AddToCartRequest describes items of one product to add to the cart.
// Price and Name are what the client saw; they are compared against the stored cart.
type AddToCartRequest struct {
	ProductID   int64           `json:"id" validate:"required,gt=0"`
	SellerID    int64           `json:"sellerId"`
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Items       []AddToCartItem `json:"items" validate:"required,min=1,dive"`
}

// AddToCartItem is one requested item line.
type AddToCartItem struct {
	ID    int64  `json:"id" validate:"required,gt=0"`
	Name  string `json:"name" validate:"required"`
	Price int64  `json:"price" validate:"gte=0"`
	Count int    `json:"count"`
}

// =============================================================================
// CART COLLABORATORS
// =============================================================================

// CartStore persists one cart per customer. It provides no locking; last write wins.
type CartStore interface {
	// Get returns the stored cart, or nil with no error when the customer has none.
	Get(ctx context.Context, customerID int64) (*Cart, error)

	// Put replaces the stored cart. A nil cart clears it.
	Put(ctx context.Context, customerID int64, cart *Cart) error
}

// CartService provides the customer-facing cart operations.
type CartService interface {
	// AddToCart merges the request into the customer's cart after checking live stock.
	AddToCart(ctx context.Context, customerID int64, req AddToCartRequest) (*CartView, error)

	// GetCart reconciles the stored cart against the live catalog, persists the result,
	// and returns it with the changes found.
	GetCart(ctx context.Context, customerID int64) (*CartView, error)

	// UpdateCart replaces the stored cart and then reconciles it like GetCart.
	UpdateCart(ctx context.Context, customerID int64, cart *Cart) (*CartView, error)

	// ClearCart removes the stored cart.
	ClearCart(ctx context.Context, customerID int64) error
}
