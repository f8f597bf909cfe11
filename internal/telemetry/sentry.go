package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/dukerupert/cartsync/internal/domain"
)

const sentryFlushTimeout = 2 * time.Second

// SentryConfig holds configuration for Sentry error tracking
type SentryConfig struct {
	DSN         string
	Enabled     bool
	Environment string
	Release     string

	// SampleRate is the share of errors sent (0.0 to 1.0). Zero means 1.0.
	SampleRate       float64
	TracesSampleRate float64
	Debug            bool
}

var sentryEnabled atomic.Bool

// InitSentry initializes the Sentry client. It is a no-op unless Enabled is
// set and a DSN is configured. The returned function flushes pending events.
func InitSentry(cfg SentryConfig, logger *slog.Logger) (func(), error) {
	sentryEnabled.Store(false)

	if !cfg.Enabled {
		logger.Info("Sentry disabled (SENTRY_ENABLED=false)")
		return func() {}, nil
	}
	if cfg.DSN == "" {
		logger.Warn("Sentry DSN not configured, disabling error tracking")
		return func() {}, nil
	}

	sampleRate := cfg.SampleRate
	if sampleRate == 0 {
		sampleRate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
		BeforeSend:       dropClientErrors,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Sentry: %w", err)
	}
	sentryEnabled.Store(true)

	logger.Info("Sentry initialized",
		"environment", cfg.Environment,
		"release", cfg.Release,
		"sample_rate", sampleRate,
	)
	return func() { sentry.Flush(sentryFlushTimeout) }, nil
}

// IsEnabled reports whether events are being sent.
func IsEnabled() bool {
	return sentryEnabled.Load()
}

// dropClientErrors discards events whose code is a caller mistake, such as
// a stale cart or a low balance. They are expected and logged at info.
func dropClientErrors(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	if hint == nil || hint.OriginalException == nil {
		return event
	}
	switch domain.ErrorCode(hint.OriginalException) {
	case domain.EINTERNAL, domain.EUNAVAILABLE:
		return event
	default:
		return nil
	}
}

// CaptureErrorFromContext reports err on the request's hub, which carries
// the user set by SentryContextMiddleware. Domain code and op become tags.
func CaptureErrorFromContext(ctx context.Context, err error, extras map[string]any) {
	if !IsEnabled() || err == nil {
		return
	}

	hub := hubFromContext(ctx)
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(errorTags(ctx, err))
		for key, value := range extras {
			scope.SetExtra(key, value)
		}
		hub.CaptureException(err)
	})
}

func errorTags(ctx context.Context, err error) map[string]string {
	tags := map[string]string{"error.code": domain.ErrorCode(err)}
	if op := domain.ErrorOp(err); op != "" {
		tags["error.op"] = op
	}
	if id := domain.RequestIDFromContext(ctx); id != "" {
		tags["request_id"] = id
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		tags["error.fields"] = strconv.Itoa(len(ve.Fields))
	}
	return tags
}

// AddBreadcrumb records a step of the current request, e.g. one order saga
// stage, so a later captured error shows what ran before it.
func AddBreadcrumb(ctx context.Context, category, message string, data map[string]any) {
	if !IsEnabled() {
		return
	}
	hubFromContext(ctx).AddBreadcrumb(&sentry.Breadcrumb{
		Category: category,
		Message:  message,
		Data:     data,
		Level:    sentry.LevelInfo,
	}, nil)
}

func hubFromContext(ctx context.Context) *sentry.Hub {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

// SentryMiddleware gives every request its own hub so scope data stays per
// request. Panics are left to router.Recovery.
func SentryMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsEnabled() {
				next.ServeHTTP(w, r)
				return
			}

			hub := sentry.CurrentHub().Clone()
			hub.Scope().SetRequest(r)
			ctx := sentry.SetHubOnContext(r.Context(), hub)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserInfo represents user information for Sentry context
type UserInfo struct {
	ID    int64
	Email string
	Role  string
}

// UserContextExtractor extracts user info from a request context
type UserContextExtractor func(ctx context.Context) *UserInfo

// SentryContextMiddleware sets the authenticated user on the request hub.
// Apply it after authentication middleware.
func SentryContextMiddleware(userExtractor UserContextExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsEnabled() || userExtractor == nil {
				next.ServeHTTP(w, r)
				return
			}

			if user := userExtractor(r.Context()); user != nil {
				hubFromContext(r.Context()).ConfigureScope(func(scope *sentry.Scope) {
					scope.SetUser(sentry.User{
						ID:    strconv.FormatInt(user.ID, 10),
						Email: user.Email,
					})
					scope.SetTag("role", user.Role)
				})
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HTTPTransport adds a Sentry span to each outgoing call, such as the
// account ledger's user-api requests.
type HTTPTransport struct {
	Transport http.RoundTripper
}

func (t *HTTPTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	if !IsEnabled() {
		return base.RoundTrip(req)
	}

	span := sentry.StartSpan(req.Context(), "http.client")
	span.Description = req.Method + " " + req.URL.Host + req.URL.Path
	defer span.Finish()

	resp, err := base.RoundTrip(req)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return resp, err
	}
	span.SetData("http.status_code", resp.StatusCode)
	if resp.StatusCode >= 500 {
		span.Status = sentry.SpanStatusInternalError
	}
	return resp, nil
}
