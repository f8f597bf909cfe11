package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dukerupert/cartsync/internal/domain"
	"github.com/dukerupert/cartsync/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMultiNotifier(t *testing.T) {
	mailErr := errors.New("smtp down")
	mail := &mockNotifier{SendFunc: func(ctx context.Context, contact domain.Contact, summary domain.OrderSummary) error {
		return mailErr
	}}
	events := &mockNotifier{}
	metrics := telemetry.NewBusinessMetrics("test", prometheus.NewRegistry())

	n := NewMultiNotifier(metrics,
		NotifierChannel{Name: "email", Notifier: mail},
		NotifierChannel{Name: "nats", Notifier: events},
	)

	err := n.SendOrderConfirmation(context.Background(), domain.Contact{Email: "kim@example.com"}, domain.OrderSummary{Total: 100})

	assert.ErrorIs(t, err, mailErr)
	assert.ErrorContains(t, err, "email: smtp down")
	assert.Equal(t, 1, mail.calls)
	assert.Equal(t, 1, events.calls, "later channels still run after a failure")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.NotificationsFailed.WithLabelValues("email")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.NotificationsSent.WithLabelValues("nats")))
}

func TestMultiNotifier_NoChannels(t *testing.T) {
	n := NewMultiNotifier(nil)
	assert.NoError(t, n.SendOrderConfirmation(context.Background(), domain.Contact{}, domain.OrderSummary{}))
}
