package service

import (
	"testing"

	"github.com/dukerupert/cartsync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cartWith(products ...domain.CartProduct) *domain.Cart {
	if products == nil {
		products = []domain.CartProduct{}
	}
	return &domain.Cart{CustomerID: 100, Products: products}
}

func cartProduct(id int64, name string, items ...domain.CartItem) domain.CartProduct {
	return domain.CartProduct{ID: id, SellerID: 9, Name: name, Items: items}
}

func TestReconcileCart(t *testing.T) {
	tests := []struct {
		name         string
		cart         *domain.Cart
		catalog      []domain.CatalogProduct
		wantMessages []string
		wantCart     *domain.Cart
	}{
		{
			name: "consistent cart produces no messages",
			cart: cartWith(cartProduct(1, "Nike Air",
				domain.CartItem{ID: 11, Name: "Red 270", Price: 20000, Count: 2},
			)),
			catalog:      []domain.CatalogProduct{sampleProduct()},
			wantMessages: nil,
			wantCart: cartWith(cartProduct(1, "Nike Air",
				domain.CartItem{ID: 11, Name: "Red 270", Price: 20000, Count: 2},
			)),
		},
		{
			name:         "missing product is removed",
			cart:         cartWith(cartProduct(2, "Old Boots", domain.CartItem{ID: 21, Name: "Brown", Price: 5000, Count: 1})),
			catalog:      []domain.CatalogProduct{sampleProduct()},
			wantMessages: []string{"Old Boots has been removed"},
			wantCart:     cartWith(),
		},
		{
			name: "count clamped to live stock",
			cart: cartWith(cartProduct(1, "Nike Air",
				domain.CartItem{ID: 11, Name: "Red 270", Price: 20000, Count: 9},
			)),
			catalog: []domain.CatalogProduct{{
				ID: 1, Name: "Nike Air",
				Items: []domain.CatalogItem{{ID: 11, Name: "Red 270", Price: 20000, Count: 1}},
			}},
			wantMessages: []string{"Nike Air changes: Red 270 quantity changed"},
			wantCart: cartWith(cartProduct(1, "Nike Air",
				domain.CartItem{ID: 11, Name: "Red 270", Price: 20000, Count: 1},
			)),
		},
		{
			name: "price refreshed from catalog",
			cart: cartWith(cartProduct(1, "Nike Air",
				domain.CartItem{ID: 12, Name: "Blue 280", Price: 14000, Count: 1},
			)),
			catalog:      []domain.CatalogProduct{sampleProduct()},
			wantMessages: []string{"Nike Air changes: Blue 280 price changed"},
			wantCart: cartWith(cartProduct(1, "Nike Air",
				domain.CartItem{ID: 12, Name: "Blue 280", Price: 15000, Count: 1},
			)),
		},
		{
			name: "price and count change together",
			cart: cartWith(cartProduct(1, "Nike Air",
				domain.CartItem{ID: 12, Name: "Blue 280", Price: 14000, Count: 7},
			)),
			catalog:      []domain.CatalogProduct{sampleProduct()},
			wantMessages: []string{"Nike Air changes: Blue 280 price and quantity changed"},
			wantCart: cartWith(cartProduct(1, "Nike Air",
				domain.CartItem{ID: 12, Name: "Blue 280", Price: 15000, Count: 5},
			)),
		},
		{
			name: "removed and sold out items share one product message",
			cart: cartWith(cartProduct(1, "Nike Air",
				domain.CartItem{ID: 10, Name: "Green 250", Price: 20000, Count: 1},
				domain.CartItem{ID: 11, Name: "Red 270", Price: 20000, Count: 1},
				domain.CartItem{ID: 12, Name: "Blue 280", Price: 15000, Count: 1},
			)),
			catalog: []domain.CatalogProduct{{
				ID: 1, Name: "Nike Air",
				Items: []domain.CatalogItem{
					{ID: 11, Name: "Red 270", Price: 20000, Count: 0},
					{ID: 12, Name: "Blue 280", Price: 15000, Count: 5},
				},
			}},
			wantMessages: []string{"Nike Air changes: Green 250 option removed, Red 270 is sold out"},
			wantCart: cartWith(cartProduct(1, "Nike Air",
				domain.CartItem{ID: 12, Name: "Blue 280", Price: 15000, Count: 1},
			)),
		},
		{
			name: "product with no items left is removed",
			cart: cartWith(cartProduct(1, "Nike Air",
				domain.CartItem{ID: 10, Name: "Green 250", Price: 20000, Count: 1},
			)),
			catalog:      []domain.CatalogProduct{sampleProduct()},
			wantMessages: []string{"Nike Air has no purchasable options left"},
			wantCart:     cartWith(),
		},
		{
			name: "adjacent removals keep traversal order",
			cart: cartWith(
				cartProduct(2, "Old Boots", domain.CartItem{ID: 21, Name: "Brown", Price: 5000, Count: 1}),
				cartProduct(3, "Old Socks", domain.CartItem{ID: 31, Name: "White", Price: 1000, Count: 1}),
				cartProduct(1, "Nike Air", domain.CartItem{ID: 12, Name: "Blue 280", Price: 15000, Count: 9}),
			),
			catalog: []domain.CatalogProduct{sampleProduct()},
			wantMessages: []string{
				"Old Boots has been removed",
				"Old Socks has been removed",
				"Nike Air changes: Blue 280 quantity changed",
			},
			wantCart: cartWith(cartProduct(1, "Nike Air",
				domain.CartItem{ID: 12, Name: "Blue 280", Price: 15000, Count: 5},
			)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages := ReconcileCart(tt.cart, domain.NewCatalogSnapshot(tt.catalog))

			assert.Equal(t, tt.wantMessages, messages)
			assert.Equal(t, tt.wantCart.Products, tt.cart.Products)
		})
	}
}

func TestReconcileCart_Idempotent(t *testing.T) {
	snap := domain.NewCatalogSnapshot([]domain.CatalogProduct{
		sampleProduct(),
		{ID: 4, Name: "Cap", Items: []domain.CatalogItem{{ID: 41, Name: "Black", Price: 3000, Count: 0}}},
	})
	cart := cartWith(
		cartProduct(1, "Nike Air",
			domain.CartItem{ID: 11, Name: "Red 270", Price: 19000, Count: 30},
			domain.CartItem{ID: 13, Name: "Gone", Price: 1, Count: 1},
		),
		cartProduct(4, "Cap", domain.CartItem{ID: 41, Name: "Black", Price: 3000, Count: 1}),
		cartProduct(5, "Deleted", domain.CartItem{ID: 51, Name: "Any", Price: 1, Count: 1}),
	)

	first := ReconcileCart(cart, snap)
	require.NotEmpty(t, first)
	afterFirst := cart.Clone()

	second := ReconcileCart(cart, snap)
	assert.Empty(t, second)
	assert.Equal(t, afterFirst, cart)
}

func TestReconcileCart_NilCart(t *testing.T) {
	assert.Nil(t, ReconcileCart(nil, domain.CatalogSnapshot{}))
}

func TestReconcileCart_NeverLeavesEmptyProducts(t *testing.T) {
	cart := cartWith(cartProduct(1, "Nike Air",
		domain.CartItem{ID: 11, Name: "Red 270", Price: 20000, Count: 1},
	))
	snap := domain.NewCatalogSnapshot([]domain.CatalogProduct{{
		ID: 1, Name: "Nike Air",
		Items: []domain.CatalogItem{{ID: 11, Name: "Red 270", Price: 20000, Count: 0}},
	}})

	messages := ReconcileCart(cart, snap)

	assert.Equal(t, []string{"Nike Air has no purchasable options left"}, messages)
	assert.Empty(t, cart.Products)
}
