package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for cart and order observability.
// A nil *BusinessMetrics is valid; every recording method is a no-op on nil.
type BusinessMetrics struct {
	// Cart
	CartMerges     *prometheus.CounterVec
	CartItemsAdded prometheus.Counter
	CartReconciles *prometheus.CounterVec
	CartMessages   prometheus.Counter
	CartCleared    prometheus.Counter

	// Orders
	OrdersCommitted *prometheus.CounterVec
	OrderValue      prometheus.Histogram
	OrderItemCount  prometheus.Histogram
	Compensations   *prometheus.CounterVec

	// Notifications
	NotificationsSent    *prometheus.CounterVec
	NotificationsFailed  *prometheus.CounterVec
	NotificationsDropped prometheus.Counter

	// External collaborators
	LedgerLatency *prometheus.HistogramVec
}

// NewBusinessMetrics creates business metrics and registers them with reg.
// Pass prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewBusinessMetrics(namespace string, reg prometheus.Registerer) *BusinessMetrics {
	if namespace == "" {
		namespace = "cartsync"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	subsystem := "business"

	return &BusinessMetrics{
		// =======================================================================
		// Cart
		// =======================================================================
		CartMerges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_merges_total",
				Help:      "Total add-to-cart merges by result",
			},
			[]string{"result"}, // result: ok, not_found, not_enough_stock, invalid, error
		),
		CartItemsAdded: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_items_added_total",
				Help:      "Total item units added to carts (quantity-aware)",
			},
		),
		CartReconciles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_reconciles_total",
				Help:      "Total cart reconciles against the live catalog",
			},
			[]string{"outcome"}, // outcome: clean, changed
		),
		CartMessages: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_divergence_messages_total",
				Help:      "Total divergence messages reported to customers",
			},
		),
		CartCleared: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_cleared_total",
				Help:      "Total carts cleared by customers",
			},
		),

		// =======================================================================
		// Orders
		// =======================================================================
		OrdersCommitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_total",
				Help:      "Total order attempts by result",
			},
			[]string{"result"}, // result: committed, cart_empty, check_cart, balance, stock, error
		),
		OrderValue: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_value",
				Help:      "Committed order value in the smallest currency unit",
				Buckets:   []float64{1000, 5000, 10000, 20000, 50000, 100000, 200000, 500000, 1000000},
			},
		),
		OrderItemCount: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_item_count",
				Help:      "Number of item lines per committed order",
				Buckets:   []float64{1, 2, 3, 5, 10, 15, 20},
			},
		),
		Compensations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_compensations_total",
				Help:      "Total order compensations after a stock decrement failure",
			},
			[]string{"result"}, // result: ok, failed
		),

		// =======================================================================
		// Notifications
		// =======================================================================
		NotificationsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "notifications_sent_total",
				Help:      "Total order confirmations delivered",
			},
			[]string{"channel"}, // channel: email, nats
		),
		NotificationsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "notifications_failed_total",
				Help:      "Total order confirmation delivery failures",
			},
			[]string{"channel"},
		),
		NotificationsDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "notifications_dropped_total",
				Help:      "Total order confirmations dropped because the queue was full",
			},
		),

		// =======================================================================
		// External collaborators
		// =======================================================================
		LedgerLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "ledger_call_duration_seconds",
				Help:      "Account and inventory ledger call duration",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"operation"}, // operation: get_customer, change_balance, decrement, increment
		),
	}
}

// RecordMerge counts an add-to-cart attempt.
func (m *BusinessMetrics) RecordMerge(result string, units int) {
	if m == nil {
		return
	}
	m.CartMerges.WithLabelValues(result).Inc()
	if units > 0 {
		m.CartItemsAdded.Add(float64(units))
	}
}

// RecordReconcile counts a reconcile and the messages it produced.
func (m *BusinessMetrics) RecordReconcile(messages int) {
	if m == nil {
		return
	}
	if messages == 0 {
		m.CartReconciles.WithLabelValues("clean").Inc()
		return
	}
	m.CartReconciles.WithLabelValues("changed").Inc()
	m.CartMessages.Add(float64(messages))
}

// RecordCartCleared counts a customer clearing their cart.
func (m *BusinessMetrics) RecordCartCleared() {
	if m == nil {
		return
	}
	m.CartCleared.Inc()
}

// RecordOrder counts an order attempt. value and lines are observed only for committed orders.
func (m *BusinessMetrics) RecordOrder(result string, value int64, lines int) {
	if m == nil {
		return
	}
	m.OrdersCommitted.WithLabelValues(result).Inc()
	if result == "committed" {
		m.OrderValue.Observe(float64(value))
		m.OrderItemCount.Observe(float64(lines))
	}
}

// RecordCompensation counts an order compensation run.
func (m *BusinessMetrics) RecordCompensation(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.Compensations.WithLabelValues("ok").Inc()
		return
	}
	m.Compensations.WithLabelValues("failed").Inc()
}

// RecordNotification counts a notification delivery attempt for channel.
func (m *BusinessMetrics) RecordNotification(channel string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.NotificationsFailed.WithLabelValues(channel).Inc()
		return
	}
	m.NotificationsSent.WithLabelValues(channel).Inc()
}

// RecordNotificationDropped counts a notification dropped on a full queue.
func (m *BusinessMetrics) RecordNotificationDropped() {
	if m == nil {
		return
	}
	m.NotificationsDropped.Inc()
}

// ObserveLedger records the duration of a ledger call in seconds.
func (m *BusinessMetrics) ObserveLedger(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.LedgerLatency.WithLabelValues(operation).Observe(seconds)
}
