package telemetry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/cartsync/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitSentry_Disabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  SentryConfig
	}{
		{"flag off", SentryConfig{Enabled: false, DSN: "https://public@example.com/1"}},
		{"no dsn", SentryConfig{Enabled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flush, err := InitSentry(tt.cfg, discardLogger())
			require.NoError(t, err)
			require.NotNil(t, flush)
			flush()
			assert.False(t, IsEnabled())

			// No-ops while disabled.
			CaptureErrorFromContext(context.Background(), errors.New("boom"), nil)
			AddBreadcrumb(context.Background(), "order", "debit", nil)
		})
	}
}

func TestDropClientErrors(t *testing.T) {
	event := &sentry.Event{Message: "x"}

	tests := []struct {
		name string
		err  error
		keep bool
	}{
		{"internal kept", errors.New("nil pointer"), true},
		{"unavailable kept", domain.Unavailable(errors.New("timeout"), "order.debit", "ledger failed"), true},
		{"stale cart dropped", domain.ErrOrderFailCheckCart, false},
		{"low balance dropped", domain.ErrNotEnoughBalance, false},
		{"validation dropped", domain.NewValidationError("cart.add", "id", "is required"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dropClientErrors(event, &sentry.EventHint{OriginalException: tt.err})
			if tt.keep {
				assert.Same(t, event, got)
			} else {
				assert.Nil(t, got)
			}
		})
	}

	assert.Same(t, event, dropClientErrors(event, nil))
}

func TestErrorTags(t *testing.T) {
	ctx := domain.NewContextWithRequestID(context.Background(), "req-1")

	tags := errorTags(ctx, domain.Unavailable(errors.New("refused"), "cart.get", "cart store read failed"))
	assert.Equal(t, map[string]string{
		"error.code": domain.EUNAVAILABLE,
		"error.op":   "cart.get",
		"request_id": "req-1",
	}, tags)

	tags = errorTags(context.Background(), domain.NewValidationError("cart.add", "id", "is required"))
	assert.Equal(t, "1", tags["error.fields"])
	assert.NotContains(t, tags, "request_id")
}

func TestSentryMiddleware_PassThroughWhenDisabled(t *testing.T) {
	_, err := InitSentry(SentryConfig{}, discardLogger())
	require.NoError(t, err)

	called := false
	h := SentryMiddleware()(SentryContextMiddleware(func(context.Context) *UserInfo {
		t.Fatal("user extractor must not run while disabled")
		return nil
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customer/cart", nil))
	assert.True(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHTTPTransport_Disabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := &http.Client{Transport: &HTTPTransport{}}
	resp, err := client.Get(srv.URL + "/customer/getInfo")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}
