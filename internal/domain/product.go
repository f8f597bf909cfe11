package domain

import (
	"context"
)

// =============================================================================
// CATALOG DOMAIN ERRORS
// =============================================================================

var (
	ErrProductNotFound = &Error{Code: ENOTFOUND, Message: "Product not found"}
	ErrItemNotFound    = &Error{Code: ENOTFOUND, Message: "Product item not found"}
	ErrSameItemName    = &Error{Code: ECONFLICT, Message: "An item with the same name already exists"}
)

// =============================================================================
// CATALOG DOMAIN TYPES
// =============================================================================

// CatalogItem is one purchasable option of a product with its live price and stock.
// Price is in the smallest currency unit.
type CatalogItem struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"productId"`
	SellerID  int64  `json:"sellerId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Count     int    `json:"count"`
}

// CatalogProduct is the authoritative product record as seen by the cart engine.
type CatalogProduct struct {
	ID          int64         `json:"id"`
	SellerID    int64         `json:"sellerId"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Items       []CatalogItem `json:"items,omitempty"`
}

// Item looks up an item of the product by id.
func (p CatalogProduct) Item(id int64) (CatalogItem, bool) {
	for _, item := range p.Items {
		if item.ID == id {
			return item, true
		}
	}
	return CatalogItem{}, false
}

// CatalogSnapshot indexes products by id for one reconcile pass.
type CatalogSnapshot map[int64]CatalogProduct

// NewCatalogSnapshot builds a snapshot from a batch lookup result.
func NewCatalogSnapshot(products []CatalogProduct) CatalogSnapshot {
	snap := make(CatalogSnapshot, len(products))
	for _, p := range products {
		snap[p.ID] = p
	}
	return snap
}

// Product returns the live product for id.
func (s CatalogSnapshot) Product(id int64) (CatalogProduct, bool) {
	p, ok := s[id]
	return p, ok
}

// =============================================================================
// CATALOG COLLABORATORS
// =============================================================================

// CatalogLookup reads live catalog state.
type CatalogLookup interface {
	// ProductByID returns the product with its items, or ErrProductNotFound.
	ProductByID(ctx context.Context, id int64) (*CatalogProduct, error)

	// ProductsByIDs returns the products that still exist, with items.
	// Missing ids are simply absent from the result.
	ProductsByIDs(ctx context.Context, ids []int64) ([]CatalogProduct, error)
}

// InventoryLedger mutates item stock during order commit.
type InventoryLedger interface {
	// Decrement removes count units from the item's stock.
	// Returns ErrNotEnoughItemCount when stock is lower than count.
	Decrement(ctx context.Context, itemID int64, count int) error

	// Increment returns count units to the item's stock (order compensation).
	Increment(ctx context.Context, itemID int64, count int) error
}

// =============================================================================
// SELLER CATALOG MANAGEMENT
// =============================================================================

// AddProductParams creates a product with its initial items.
type AddProductParams struct {
	Name        string               `json:"name" validate:"required,max=200"`
	Description string               `json:"description" validate:"max=2000"`
	Items       []AddProductItemForm `json:"items" validate:"dive"`
}

// AddProductItemForm is one item of AddProductParams.
type AddProductItemForm struct {
	Name  string `json:"name" validate:"required,max=200"`
	Price int64  `json:"price" validate:"gte=0"`
	Count int    `json:"count" validate:"gte=0"`
}

// AddProductItemParams adds an item to an existing product.
type AddProductItemParams struct {
	ProductID int64  `json:"productId" validate:"required,gt=0"`
	Name      string `json:"name" validate:"required,max=200"`
	Price     int64  `json:"price" validate:"gte=0"`
	Count     int    `json:"count" validate:"gte=0"`
}

// UpdateProductParams replaces product fields and the listed items.
type UpdateProductParams struct {
	ID          int64                   `json:"id" validate:"required,gt=0"`
	Name        string                  `json:"name" validate:"required,max=200"`
	Description string                  `json:"description" validate:"max=2000"`
	Items       []UpdateProductItemForm `json:"items" validate:"dive"`
}

// UpdateProductItemForm updates one existing item by id.
type UpdateProductItemForm struct {
	ID    int64  `json:"id" validate:"required,gt=0"`
	Name  string `json:"name" validate:"required,max=200"`
	Price int64  `json:"price" validate:"gte=0"`
	Count int    `json:"count" validate:"gte=0"`
}

// ProductService manages a seller's catalog and serves product search.
type ProductService interface {
	AddProduct(ctx context.Context, sellerID int64, params AddProductParams) (*CatalogProduct, error)
	AddProductItem(ctx context.Context, sellerID int64, params AddProductItemParams) (*CatalogProduct, error)
	UpdateProduct(ctx context.Context, sellerID int64, params UpdateProductParams) (*CatalogProduct, error)
	UpdateProductItem(ctx context.Context, sellerID int64, params UpdateProductItemForm) (*CatalogItem, error)
	DeleteProduct(ctx context.Context, sellerID, productID int64) (*CatalogProduct, error)
	DeleteProductItem(ctx context.Context, sellerID, itemID int64) (*CatalogItem, error)

	// SearchByName returns products whose name contains name, without items.
	SearchByName(ctx context.Context, name string) ([]CatalogProduct, error)

	// GetProductDetail returns one product with its items.
	GetProductDetail(ctx context.Context, productID int64) (*CatalogProduct, error)
}
