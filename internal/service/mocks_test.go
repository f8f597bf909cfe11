package service

import (
	"context"
	"errors"
	"sync"

	"github.com/dukerupert/cartsync/internal/domain"
)

// mockCatalog implements domain.CatalogLookup over a fixed product list.
type mockCatalog struct {
	products []domain.CatalogProduct

	ProductByIDFunc   func(ctx context.Context, id int64) (*domain.CatalogProduct, error)
	ProductsByIDsFunc func(ctx context.Context, ids []int64) ([]domain.CatalogProduct, error)
}

func (m *mockCatalog) ProductByID(ctx context.Context, id int64) (*domain.CatalogProduct, error) {
	if m.ProductByIDFunc != nil {
		return m.ProductByIDFunc(ctx, id)
	}
	for _, p := range m.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (m *mockCatalog) ProductsByIDs(ctx context.Context, ids []int64) ([]domain.CatalogProduct, error) {
	if m.ProductsByIDsFunc != nil {
		return m.ProductsByIDsFunc(ctx, ids)
	}
	var out []domain.CatalogProduct
	for _, id := range ids {
		for _, p := range m.products {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

// mockCartStore implements domain.CartStore with an in-memory map.
type mockCartStore struct {
	mu    sync.Mutex
	carts map[int64]*domain.Cart
	puts  int

	GetFunc func(ctx context.Context, customerID int64) (*domain.Cart, error)
	PutFunc func(ctx context.Context, customerID int64, cart *domain.Cart) error
}

func newMockCartStore() *mockCartStore {
	return &mockCartStore{carts: make(map[int64]*domain.Cart)}
}

func (m *mockCartStore) Get(ctx context.Context, customerID int64) (*domain.Cart, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, customerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.carts[customerID].Clone(), nil
}

func (m *mockCartStore) Put(ctx context.Context, customerID int64, cart *domain.Cart) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, customerID, cart)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if cart == nil {
		delete(m.carts, customerID)
		return nil
	}
	m.carts[customerID] = cart.Clone()
	return nil
}

// mockAccounts implements domain.AccountLedger for one customer.
type mockAccounts struct {
	customer domain.Customer
	changes  []int64
	reasons  []string

	GetCustomerFunc   func(ctx context.Context, token string) (*domain.Customer, error)
	ChangeBalanceFunc func(ctx context.Context, token string, delta int64, reason string) (int64, error)
}

func (m *mockAccounts) GetBalance(ctx context.Context, token string) (int64, error) {
	c, err := m.GetCustomer(ctx, token)
	if err != nil {
		return 0, err
	}
	return c.Balance, nil
}

func (m *mockAccounts) GetCustomer(ctx context.Context, token string) (*domain.Customer, error) {
	if m.GetCustomerFunc != nil {
		return m.GetCustomerFunc(ctx, token)
	}
	c := m.customer
	return &c, nil
}

func (m *mockAccounts) ChangeBalance(ctx context.Context, token string, delta int64, reason string) (int64, error) {
	if m.ChangeBalanceFunc != nil {
		return m.ChangeBalanceFunc(ctx, token, delta, reason)
	}
	if m.customer.Balance+delta < 0 {
		return m.customer.Balance, domain.ErrNotEnoughBalance
	}
	m.customer.Balance += delta
	m.changes = append(m.changes, delta)
	m.reasons = append(m.reasons, reason)
	return m.customer.Balance, nil
}

// mockInventory implements domain.InventoryLedger over per-item stock counts.
type mockInventory struct {
	counts     map[int64]int
	failures   map[int64]error
	decrements []int64
	increments []int64

	IncrementFunc func(ctx context.Context, itemID int64, count int) error
}

func (m *mockInventory) Decrement(ctx context.Context, itemID int64, count int) error {
	if err, ok := m.failures[itemID]; ok {
		return err
	}
	if m.counts[itemID] < count {
		return domain.ErrNotEnoughItemCount
	}
	m.counts[itemID] -= count
	m.decrements = append(m.decrements, itemID)
	return nil
}

func (m *mockInventory) Increment(ctx context.Context, itemID int64, count int) error {
	if m.IncrementFunc != nil {
		return m.IncrementFunc(ctx, itemID, count)
	}
	m.counts[itemID] += count
	m.increments = append(m.increments, itemID)
	return nil
}

// mockNotifier implements domain.Notifier.
type mockNotifier struct {
	calls    int
	contact  domain.Contact
	summary  domain.OrderSummary
	SendFunc func(ctx context.Context, contact domain.Contact, summary domain.OrderSummary) error
}

func (m *mockNotifier) SendOrderConfirmation(ctx context.Context, contact domain.Contact, summary domain.OrderSummary) error {
	m.calls++
	m.contact = contact
	m.summary = summary
	if m.SendFunc != nil {
		return m.SendFunc(ctx, contact, summary)
	}
	return nil
}

var errConnRefused = errors.New("dial tcp 10.0.0.5:6379: connect: connection refused")

// sampleProduct returns a product with two items: Red (20000, 10) and Blue (15000, 5).
func sampleProduct() domain.CatalogProduct {
	return domain.CatalogProduct{
		ID:       1,
		SellerID: 9,
		Name:     "Nike Air",
		Items: []domain.CatalogItem{
			{ID: 11, ProductID: 1, SellerID: 9, Name: "Red 270", Price: 20000, Count: 10},
			{ID: 12, ProductID: 1, SellerID: 9, Name: "Blue 280", Price: 15000, Count: 5},
		},
	}
}
