package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dukerupert/cartsync/internal/domain"
	"github.com/dukerupert/cartsync/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Balance change reasons recorded by the account ledger.
const (
	ReasonOrder          = "Order"
	ReasonOrderCancelled = "Order cancelled"
)

type orderService struct {
	catalog   domain.CatalogLookup
	accounts  domain.AccountLedger
	inventory domain.InventoryLedger
	notifier  domain.Notifier
	logger    *slog.Logger
	metrics   *telemetry.BusinessMetrics
	tracer    trace.Tracer

	now   func() time.Time
	newID func() uuid.UUID
}

// OrderServiceConfig wires the collaborators of the order committer.
// Notifier and Metrics may be nil.
type OrderServiceConfig struct {
	Catalog   domain.CatalogLookup
	Accounts  domain.AccountLedger
	Inventory domain.InventoryLedger
	Notifier  domain.Notifier
	Logger    *slog.Logger
	Metrics   *telemetry.BusinessMetrics
}

// NewOrderService creates the order committer.
func NewOrderService(cfg OrderServiceConfig) domain.OrderService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &orderService{
		catalog:   cfg.Catalog,
		accounts:  cfg.Accounts,
		inventory: cfg.Inventory,
		notifier:  cfg.Notifier,
		logger:    logger,
		metrics:   cfg.Metrics,
		tracer:    telemetry.Tracer(),
		now:       time.Now,
		newID:     uuid.New,
	}
}

// orderLine is one stock decrement applied during a commit.
type orderLine struct {
	itemID int64
	count  int
}

// Order commits cart for the customer identified by token.
//
// The cart is reconciled against a fresh snapshot first; any divergence aborts with
// ErrOrderFailCheckCart. The balance is debited before stock is decremented. If a
// decrement fails, the lines already decremented are restored and the debit is
// credited back before the decrement error is returned.
func (s *orderService) Order(ctx context.Context, token string, cart *domain.Cart) (*domain.OrderResult, error) {
	const op = "order.commit"

	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	result, err := s.commit(ctx, token, cart)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, domain.ErrorCode(err))
		s.metrics.RecordOrder(orderResult(err), 0, 0)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("order.id", result.OrderID.String()),
		attribute.Int64("order.total", result.Total),
	)
	s.metrics.RecordOrder(orderResult(nil), result.Total, lineCount(result.Cart))
	return result, nil
}

func (s *orderService) commit(ctx context.Context, token string, cart *domain.Cart) (*domain.OrderResult, error) {
	const op = "order.commit"

	if cart.IsEmpty() {
		return nil, domain.ErrCartEmpty
	}
	if err := checkCartLines(cart); err != nil {
		return nil, err
	}
	cart = cart.Clone()

	products, err := s.catalog.ProductsByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, domain.Unavailable(err, op, "catalog lookup failed")
	}
	if messages := ReconcileCart(cart, domain.NewCatalogSnapshot(products)); len(messages) > 0 {
		s.logger.InfoContext(ctx, "order rejected, cart changed",
			"customer_id", cart.CustomerID,
			"changes", messages,
		)
		return nil, domain.ErrOrderFailCheckCart
	}

	start := time.Now()
	customer, err := s.accounts.GetCustomer(ctx, token)
	s.metrics.ObserveLedger("get_customer", time.Since(start).Seconds())
	if err != nil {
		return nil, domain.Unavailable(err, op, "account ledger lookup failed")
	}

	total := cart.Total()
	if customer.Balance < total {
		return nil, domain.ErrOrderFailNotEnoughBalance
	}

	start = time.Now()
	_, err = s.accounts.ChangeBalance(ctx, token, -total, ReasonOrder)
	s.metrics.ObserveLedger("change_balance", time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, domain.ErrNotEnoughBalance) {
			return nil, domain.ErrOrderFailNotEnoughBalance
		}
		return nil, domain.Unavailable(err, op, "account debit failed")
	}
	telemetry.AddBreadcrumb(ctx, "order", "balance debited", map[string]any{"total": total})

	done := make([]orderLine, 0, lineCount(cart))
	for _, p := range cart.Products {
		for _, item := range p.Items {
			start = time.Now()
			err := s.inventory.Decrement(ctx, item.ID, item.Count)
			s.metrics.ObserveLedger("decrement", time.Since(start).Seconds())
			if err != nil {
				err = domain.Unavailable(err, op, "inventory decrement failed")
				s.logger.WarnContext(ctx, "stock decrement failed, compensating order",
					"customer_id", cart.CustomerID,
					"item_id", item.ID,
					"error", err,
				)
				telemetry.AddBreadcrumb(ctx, "order", "compensating", map[string]any{
					"item_id":        item.ID,
					"restored_lines": len(done),
				})
				if compErr := s.compensate(ctx, token, done, total); compErr != nil {
					return nil, errors.Join(err, compErr)
				}
				return nil, err
			}
			done = append(done, orderLine{itemID: item.ID, count: item.Count})
		}
	}

	result := &domain.OrderResult{
		OrderID:     s.newID(),
		Cart:        cart,
		Total:       total,
		CommittedAt: s.now(),
	}

	s.logger.InfoContext(ctx, "order committed",
		"order_id", result.OrderID,
		"customer_id", cart.CustomerID,
		"total", total,
		"lines", len(done),
	)

	s.notify(ctx, customer.Contact(), domain.NewOrderSummary(result))
	return result, nil
}

// compensate restores decremented stock and credits the debit back.
// It runs detached from ctx cancellation so a dropped request still unwinds.
func (s *orderService) compensate(ctx context.Context, token string, done []orderLine, total int64) error {
	const op = "order.compensate"
	ctx = context.WithoutCancel(ctx)

	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		line := done[i]
		start := time.Now()
		err := s.inventory.Increment(ctx, line.itemID, line.count)
		s.metrics.ObserveLedger("increment", time.Since(start).Seconds())
		if err != nil {
			errs = append(errs, domain.Internal(err, op, "stock restore failed"))
		}
	}

	start := time.Now()
	_, err := s.accounts.ChangeBalance(ctx, token, total, ReasonOrderCancelled)
	s.metrics.ObserveLedger("change_balance", time.Since(start).Seconds())
	if err != nil {
		errs = append(errs, domain.Internal(err, op, "balance credit-back failed"))
	}

	if len(errs) == 0 {
		s.metrics.RecordCompensation(true)
		s.logger.InfoContext(ctx, "order compensated", "restored_lines", len(done), "credited", total)
		return nil
	}

	compErr := errors.Join(errs...)
	s.metrics.RecordCompensation(false)
	s.logger.ErrorContext(ctx, "order compensation failed",
		"restored_lines", len(done),
		"credited", total,
		"error", compErr,
	)
	telemetry.CaptureErrorFromContext(ctx, compErr, map[string]any{
		"operation": op,
		"total":     total,
		"lines":     len(done),
	})
	return compErr
}

func (s *orderService) notify(ctx context.Context, contact domain.Contact, summary domain.OrderSummary) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendOrderConfirmation(ctx, contact, summary); err != nil {
		s.logger.WarnContext(ctx, "order confirmation failed",
			"order_id", summary.OrderID,
			"email", contact.Email,
			"error", err,
		)
	}
}

func lineCount(cart *domain.Cart) int {
	if cart == nil {
		return 0
	}
	n := 0
	for _, p := range cart.Products {
		n += len(p.Items)
	}
	return n
}
