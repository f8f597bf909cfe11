package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukerupert/cartsync/internal/domain"
	"github.com/dukerupert/cartsync/internal/telemetry"
)

// NotifierChannel names a notifier for metrics and error messages.
type NotifierChannel struct {
	Name     string
	Notifier domain.Notifier
}

// MultiNotifier fans an order confirmation out to every channel.
// Every channel is attempted; failures are joined.
type MultiNotifier struct {
	channels []NotifierChannel
	metrics  *telemetry.BusinessMetrics
}

// NewMultiNotifier creates a fan-out notifier. metrics may be nil.
func NewMultiNotifier(metrics *telemetry.BusinessMetrics, channels ...NotifierChannel) *MultiNotifier {
	return &MultiNotifier{channels: channels, metrics: metrics}
}

// SendOrderConfirmation implements domain.Notifier.
func (m *MultiNotifier) SendOrderConfirmation(ctx context.Context, contact domain.Contact, summary domain.OrderSummary) error {
	var errs []error
	for _, ch := range m.channels {
		err := ch.Notifier.SendOrderConfirmation(ctx, contact, summary)
		m.metrics.RecordNotification(ch.Name, err)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name, err))
		}
	}
	return errors.Join(errs...)
}
