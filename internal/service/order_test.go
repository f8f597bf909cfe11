package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/cartsync/internal/domain"
	"github.com/dukerupert/cartsync/internal/telemetry"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	catalog   *mockCatalog
	accounts  *mockAccounts
	inventory *mockInventory
	notifier  *mockNotifier
	metrics   *telemetry.BusinessMetrics
	svc       *orderService
}

// newOrderFixture builds a catalog with two products priced so that
// one unit of item 11 plus two units of item 21 cost 100.
func newOrderFixture(balance int64) *orderFixture {
	f := &orderFixture{
		catalog: &mockCatalog{products: []domain.CatalogProduct{
			{ID: 1, SellerID: 9, Name: "Pen", Items: []domain.CatalogItem{{ID: 11, Name: "Black", Price: 40, Count: 5}}},
			{ID: 2, SellerID: 9, Name: "Note", Items: []domain.CatalogItem{{ID: 21, Name: "A5", Price: 30, Count: 3}}},
		}},
		accounts: &mockAccounts{customer: domain.Customer{ID: 100, Email: "kim@example.com", Name: "Kim", Balance: balance}},
		inventory: &mockInventory{
			counts:   map[int64]int{11: 5, 21: 3},
			failures: map[int64]error{},
		},
		notifier: &mockNotifier{},
		metrics:  telemetry.NewBusinessMetrics("test", prometheus.NewRegistry()),
	}
	f.svc = NewOrderService(OrderServiceConfig{
		Catalog:   f.catalog,
		Accounts:  f.accounts,
		Inventory: f.inventory,
		Notifier:  f.notifier,
		Metrics:   f.metrics,
	}).(*orderService)
	f.svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	f.svc.newID = func() uuid.UUID { return uuid.MustParse("7b4c1d2e-8f9a-4b3c-a1d2-e3f4a5b6c7d8") }
	return f
}

func orderCart() *domain.Cart {
	return cartWith(
		cartProduct(1, "Pen", domain.CartItem{ID: 11, Name: "Black", Price: 40, Count: 1}),
		cartProduct(2, "Note", domain.CartItem{ID: 21, Name: "A5", Price: 30, Count: 2}),
	)
}

func TestOrderService_Order_BalanceExactlyCoversTotal(t *testing.T) {
	f := newOrderFixture(100)

	result, err := f.svc.Order(context.Background(), "token", orderCart())

	require.NoError(t, err)
	assert.Equal(t, int64(100), result.Total)
	assert.Equal(t, "7b4c1d2e-8f9a-4b3c-a1d2-e3f4a5b6c7d8", result.OrderID.String())
	assert.Equal(t, int64(0), f.accounts.customer.Balance)
	assert.Equal(t, []string{ReasonOrder}, f.accounts.reasons)
	assert.Equal(t, 4, f.inventory.counts[11])
	assert.Equal(t, 1, f.inventory.counts[21])
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OrdersCommitted.WithLabelValues("committed")))

	require.Equal(t, 1, f.notifier.calls)
	assert.Equal(t, "kim@example.com", f.notifier.contact.Email)
	assert.Equal(t, int64(100), f.notifier.summary.Total)
	assert.Len(t, f.notifier.summary.Lines, 2)
}

func TestOrderService_Order_InsufficientBalance(t *testing.T) {
	f := newOrderFixture(10)
	f.catalog.products[1].Items[0].Price = 10
	cart := cartWith(
		cartProduct(1, "Pen", domain.CartItem{ID: 11, Name: "Black", Price: 40, Count: 1}),
		cartProduct(2, "Note", domain.CartItem{ID: 21, Name: "A5", Price: 10, Count: 1}),
	)

	_, err := f.svc.Order(context.Background(), "token", cart)

	assert.ErrorIs(t, err, domain.ErrOrderFailNotEnoughBalance)
	assert.Equal(t, int64(10), f.accounts.customer.Balance)
	assert.Empty(t, f.accounts.changes)
	assert.Empty(t, f.inventory.decrements)
	assert.Zero(t, f.notifier.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OrdersCommitted.WithLabelValues("balance")))
}

func TestOrderService_Order_CheckCartFailureMutatesNothing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *orderFixture)
	}{
		{
			name:   "price changed",
			mutate: func(f *orderFixture) { f.catalog.products[0].Items[0].Price = 45 },
		},
		{
			name:   "stock dropped below cart count",
			mutate: func(f *orderFixture) { f.catalog.products[1].Items[0].Count = 1 },
		},
		{
			name:   "product deleted",
			mutate: func(f *orderFixture) { f.catalog.products = f.catalog.products[:1] },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(1000)
			tt.mutate(f)
			cart := orderCart()
			before := cart.Clone()

			_, err := f.svc.Order(context.Background(), "token", cart)

			assert.ErrorIs(t, err, domain.ErrOrderFailCheckCart)
			assert.Equal(t, int64(1000), f.accounts.customer.Balance)
			assert.Empty(t, f.accounts.changes)
			assert.Empty(t, f.inventory.decrements)
			assert.Equal(t, before, cart, "caller's cart must not be modified")
		})
	}
}

func TestOrderService_Order_RejectsUntrustedLines(t *testing.T) {
	black := func(count int) domain.CartItem {
		return domain.CartItem{ID: 11, Name: "Black", Price: 40, Count: count}
	}
	tests := []struct {
		name    string
		cart    *domain.Cart
		wantErr error
	}{
		{
			name:    "negative count",
			cart:    cartWith(cartProduct(1, "Pen", black(-100))),
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name:    "zero count",
			cart:    cartWith(cartProduct(1, "Pen", black(0))),
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name:    "same item twice within a product",
			cart:    cartWith(cartProduct(1, "Pen", black(4), black(4))),
			wantErr: domain.ErrDuplicateCartLine,
		},
		{
			name:    "same product twice",
			cart:    cartWith(cartProduct(1, "Pen", black(3)), cartProduct(1, "Pen", domain.CartItem{ID: 12, Name: "Blue", Price: 40, Count: 1})),
			wantErr: domain.ErrDuplicateCartLine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(10)
			catalogCalls := 0
			f.catalog.ProductsByIDsFunc = func(ctx context.Context, ids []int64) ([]domain.CatalogProduct, error) {
				catalogCalls++
				return f.catalog.products, nil
			}

			result, err := f.svc.Order(context.Background(), "token", tt.cart)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, result)
			assert.Zero(t, catalogCalls)
			assert.Equal(t, int64(10), f.accounts.customer.Balance)
			assert.Empty(t, f.accounts.changes)
			assert.Empty(t, f.inventory.decrements)
			assert.Equal(t, 5, f.inventory.counts[11])
			assert.Zero(t, f.notifier.calls)
			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OrdersCommitted.WithLabelValues("invalid")))
		})
	}
}

func TestOrderService_Order_EmptyCart(t *testing.T) {
	f := newOrderFixture(100)

	for _, cart := range []*domain.Cart{nil, cartWith()} {
		_, err := f.svc.Order(context.Background(), "token", cart)
		assert.ErrorIs(t, err, domain.ErrCartEmpty)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.OrdersCommitted.WithLabelValues("cart_empty")))
}

func TestOrderService_Order_DebitRaceIsBalanceFailure(t *testing.T) {
	f := newOrderFixture(100)
	f.accounts.ChangeBalanceFunc = func(ctx context.Context, token string, delta int64, reason string) (int64, error) {
		return 0, domain.ErrNotEnoughBalance
	}

	_, err := f.svc.Order(context.Background(), "token", orderCart())

	assert.ErrorIs(t, err, domain.ErrOrderFailNotEnoughBalance)
	assert.Empty(t, f.inventory.decrements)
}

func TestOrderService_Order_LedgerFailureIsUnavailable(t *testing.T) {
	f := newOrderFixture(100)
	f.accounts.GetCustomerFunc = func(ctx context.Context, token string) (*domain.Customer, error) {
		return nil, errors.New("user-api: 502 Bad Gateway")
	}

	_, err := f.svc.Order(context.Background(), "token", orderCart())

	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
	assert.Empty(t, f.accounts.changes)
}

func TestOrderService_Order_CompensatesStockFailure(t *testing.T) {
	f := newOrderFixture(100)
	f.inventory.failures[21] = domain.ErrNotEnoughItemCount

	_, err := f.svc.Order(context.Background(), "token", orderCart())

	assert.ErrorIs(t, err, domain.ErrNotEnoughItemCount)
	assert.Equal(t, int64(100), f.accounts.customer.Balance, "debit must be credited back")
	assert.Equal(t, []int64{-100, 100}, f.accounts.changes)
	assert.Equal(t, []string{ReasonOrder, ReasonOrderCancelled}, f.accounts.reasons)
	assert.Equal(t, []int64{11}, f.inventory.increments)
	assert.Equal(t, 5, f.inventory.counts[11], "decremented stock must be restored")
	assert.Zero(t, f.notifier.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Compensations.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OrdersCommitted.WithLabelValues("stock")))
}

func TestOrderService_Order_CompensationFailureIsJoined(t *testing.T) {
	f := newOrderFixture(100)
	f.inventory.failures[21] = errors.New("inventory timeout")
	restoreErr := errors.New("inventory still down")
	f.inventory.IncrementFunc = func(ctx context.Context, itemID int64, count int) error {
		return restoreErr
	}

	_, err := f.svc.Order(context.Background(), "token", orderCart())

	require.Error(t, err)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
	assert.ErrorIs(t, err, restoreErr)
	assert.Equal(t, int64(100), f.accounts.customer.Balance, "credit-back still runs when a restore fails")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Compensations.WithLabelValues("failed")))
}

func TestOrderService_Order_CompensationSurvivesCancelledContext(t *testing.T) {
	f := newOrderFixture(100)
	ctx, cancel := context.WithCancel(context.Background())
	f.inventory.failures[21] = errors.New("inventory timeout")
	f.inventory.IncrementFunc = func(c context.Context, itemID int64, count int) error {
		cancel()
		if c.Err() != nil {
			return c.Err()
		}
		f.inventory.counts[itemID] += count
		return nil
	}

	_, err := f.svc.Order(ctx, "token", orderCart())

	require.Error(t, err)
	assert.Equal(t, 5, f.inventory.counts[11])
	assert.Equal(t, int64(100), f.accounts.customer.Balance)
}

func TestOrderService_Order_NotifierFailureDoesNotFailOrder(t *testing.T) {
	f := newOrderFixture(100)
	f.notifier.SendFunc = func(ctx context.Context, contact domain.Contact, summary domain.OrderSummary) error {
		return errors.New("smtp: 421 service not available")
	}

	result, err := f.svc.Order(context.Background(), "token", orderCart())

	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, int64(0), f.accounts.customer.Balance)
	assert.Equal(t, 1, f.notifier.calls)
}

func TestOrderService_Order_WithoutNotifier(t *testing.T) {
	f := newOrderFixture(100)
	f.svc.notifier = nil

	_, err := f.svc.Order(context.Background(), "token", orderCart())

	require.NoError(t, err)
}
