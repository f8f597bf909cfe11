package service

import (
	"context"
	"log/slog"

	"github.com/dukerupert/cartsync/internal/domain"
	"github.com/dukerupert/cartsync/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type cartService struct {
	catalog domain.CatalogLookup
	store   domain.CartStore
	logger  *slog.Logger
	metrics *telemetry.BusinessMetrics
	tracer  trace.Tracer
}

// NewCartService creates a CartService over the live catalog and the cart store.
// metrics may be nil.
func NewCartService(catalog domain.CatalogLookup, store domain.CartStore, logger *slog.Logger, metrics *telemetry.BusinessMetrics) domain.CartService {
	if logger == nil {
		logger = slog.Default()
	}
	return &cartService{
		catalog: catalog,
		store:   store,
		logger:  logger,
		metrics: metrics,
		tracer:  telemetry.Tracer(),
	}
}

// AddToCart merges req into the customer's stored cart.
func (s *cartService) AddToCart(ctx context.Context, customerID int64, req domain.AddToCartRequest) (*domain.CartView, error) {
	const op = "cart.add"

	ctx, span := s.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.Int64("customer.id", customerID),
		attribute.Int64("product.id", req.ProductID),
	))
	defer span.End()

	view, err := s.addToCart(ctx, customerID, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, domain.ErrorCode(err))
		s.metrics.RecordMerge(mergeResult(err), 0)
		return nil, err
	}

	s.metrics.RecordMerge("ok", requestedUnits(req))
	return view, nil
}

func (s *cartService) addToCart(ctx context.Context, customerID int64, req domain.AddToCartRequest) (*domain.CartView, error) {
	const op = "cart.add"

	product, err := s.catalog.ProductByID(ctx, req.ProductID)
	if err != nil {
		return nil, domain.Unavailable(err, op, "catalog lookup failed")
	}

	cart, err := s.store.Get(ctx, customerID)
	if err != nil {
		return nil, domain.Unavailable(err, op, "cart store read failed")
	}

	cart, messages, err := MergeItems(cart, customerID, product, req)
	if err != nil {
		return nil, err
	}

	if err := s.store.Put(ctx, customerID, cart); err != nil {
		return nil, domain.Unavailable(err, op, "cart store write failed")
	}

	s.logger.InfoContext(ctx, "cart merged",
		"customer_id", customerID,
		"product_id", req.ProductID,
		"items", len(req.Items),
		"messages", len(messages),
	)

	return &domain.CartView{Cart: cart, Messages: nonNil(messages)}, nil
}

// GetCart reconciles the stored cart against the live catalog and persists any change.
func (s *cartService) GetCart(ctx context.Context, customerID int64) (*domain.CartView, error) {
	const op = "cart.get"

	ctx, span := s.tracer.Start(ctx, op, trace.WithAttributes(attribute.Int64("customer.id", customerID)))
	defer span.End()

	cart, err := s.store.Get(ctx, customerID)
	if err != nil {
		err = domain.Unavailable(err, op, "cart store read failed")
		span.RecordError(err)
		return nil, err
	}
	if cart == nil {
		return &domain.CartView{Cart: domain.NewCart(customerID), Messages: []string{}}, nil
	}

	view, err := s.refresh(ctx, op, customerID, cart)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, domain.ErrorCode(err))
		return nil, err
	}
	return view, nil
}

// UpdateCart replaces the stored cart with cart and then reconciles it.
func (s *cartService) UpdateCart(ctx context.Context, customerID int64, cart *domain.Cart) (*domain.CartView, error) {
	const op = "cart.update"

	ctx, span := s.tracer.Start(ctx, op, trace.WithAttributes(attribute.Int64("customer.id", customerID)))
	defer span.End()

	if cart == nil {
		cart = domain.NewCart(customerID)
	}
	if err := checkCartLines(cart); err != nil {
		return nil, err
	}
	cart.CustomerID = customerID

	if err := s.store.Put(ctx, customerID, cart); err != nil {
		err = domain.Unavailable(err, op, "cart store write failed")
		span.RecordError(err)
		return nil, err
	}

	view, err := s.refresh(ctx, op, customerID, cart)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, domain.ErrorCode(err))
		return nil, err
	}
	return view, nil
}

// ClearCart removes the stored cart.
func (s *cartService) ClearCart(ctx context.Context, customerID int64) error {
	if err := s.store.Put(ctx, customerID, nil); err != nil {
		return domain.Unavailable(err, "cart.clear", "cart store write failed")
	}
	s.metrics.RecordCartCleared()
	s.logger.InfoContext(ctx, "cart cleared", "customer_id", customerID)
	return nil
}

// refresh reconciles cart against a fresh snapshot and writes it back when anything changed.
func (s *cartService) refresh(ctx context.Context, op string, customerID int64, cart *domain.Cart) (*domain.CartView, error) {
	products, err := s.catalog.ProductsByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, domain.Unavailable(err, op, "catalog lookup failed")
	}

	messages := ReconcileCart(cart, domain.NewCatalogSnapshot(products))
	s.metrics.RecordReconcile(len(messages))

	if len(messages) > 0 {
		if err := s.store.Put(ctx, customerID, cart); err != nil {
			return nil, domain.Unavailable(err, op, "cart store write failed")
		}
		s.logger.InfoContext(ctx, "cart reconciled with changes",
			"customer_id", customerID,
			"messages", len(messages),
		)
	}

	return &domain.CartView{Cart: cart, Messages: nonNil(messages)}, nil
}

func requestedUnits(req domain.AddToCartRequest) int {
	units := 0
	for _, item := range req.Items {
		units += item.Count
	}
	return units
}

func nonNil(messages []string) []string {
	if messages == nil {
		return []string{}
	}
	return messages
}
