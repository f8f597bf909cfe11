// Package worker runs order notifications off the request path.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/cartsync/internal/domain"
	"github.com/dukerupert/cartsync/internal/telemetry"
)

// ErrPoolStopped is returned when a notification is submitted after Stop.
var ErrPoolStopped = errors.New("notify pool stopped")

// Config holds notify pool configuration
type Config struct {
	// WorkerID identifies this pool in logs
	WorkerID string

	// Workers is the number of goroutines delivering notifications
	Workers int

	// QueueSize bounds pending notifications; submissions beyond it are dropped
	QueueSize int

	// Timeout caps a single delivery
	Timeout time.Duration
}

type job struct {
	ctx     context.Context
	contact domain.Contact
	summary domain.OrderSummary
}

// NotifyPool queues order confirmations for a fixed set of workers.
// It implements domain.Notifier; SendOrderConfirmation only enqueues.
type NotifyPool struct {
	config  Config
	next    domain.Notifier
	logger  *slog.Logger
	metrics *telemetry.BusinessMetrics

	queue   chan job
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
}

var _ domain.Notifier = (*NotifyPool)(nil)

// NewNotifyPool creates a pool delivering to next and starts its workers.
func NewNotifyPool(next domain.Notifier, config Config, logger *slog.Logger, metrics *telemetry.BusinessMetrics) *NotifyPool {
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("notify-%s", uuid.New().String()[:8])
	}
	if config.Workers <= 0 {
		config.Workers = 2
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 100
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &NotifyPool{
		config:  config,
		next:    next,
		logger:  logger,
		metrics: metrics,
		queue:   make(chan job, config.QueueSize),
	}

	p.logger.Info("notify pool starting",
		"worker_id", config.WorkerID,
		"workers", config.Workers,
		"queue_size", config.QueueSize,
	)
	for i := 0; i < config.Workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// SendOrderConfirmation enqueues the notification. A full queue drops it.
func (p *NotifyPool) SendOrderConfirmation(ctx context.Context, to domain.Contact, summary domain.OrderSummary) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.queue <- job{ctx: context.WithoutCancel(ctx), contact: to, summary: summary}:
		return nil
	default:
		p.metrics.RecordNotificationDropped()
		p.logger.Warn("notification queue full, dropping",
			"worker_id", p.config.WorkerID,
			"order_id", summary.OrderID,
		)
		return nil
	}
}

func (p *NotifyPool) run() {
	defer p.wg.Done()
	for j := range p.queue {
		p.deliver(j)
	}
}

func (p *NotifyPool) deliver(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, p.config.Timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("notification panicked", "order_id", j.summary.OrderID, "panic", r)
		}
	}()

	if err := p.next.SendOrderConfirmation(ctx, j.contact, j.summary); err != nil {
		p.logger.Error("notification failed",
			"order_id", j.summary.OrderID,
			"customer_id", j.summary.CustomerID,
			"error", err,
		)
		telemetry.CaptureErrorFromContext(ctx, err, map[string]any{"order_id": j.summary.OrderID.String()})
	}
}

// Stop rejects new notifications and waits for queued ones to finish or ctx to expire.
func (p *NotifyPool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("notify pool stopped", "worker_id", p.config.WorkerID)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notify pool shutdown: %w", ctx.Err())
	}
}
