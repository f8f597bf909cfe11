package middleware

import (
	"context"
	"log/slog"
	"net/http"
)

const loggerKey contextKey = "logger"

// WithRequestLogger stores a logger tagged with the method, path and
// request_id on every request. It must run after RequestID. RequireRole
// later adds user_id.
func WithRequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attrs := []any{"method", r.Method, "path", r.URL.Path}
			if id := GetRequestID(r.Context()); id != "" {
				attrs = append(attrs, "request_id", id)
			}
			ctx := WithLogger(r.Context(), base.With(attrs...))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// GetLogger returns the request logger, else the first non-nil fallback,
// else slog.Default().
func GetLogger(ctx context.Context, fallback ...*slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	for _, l := range fallback {
		if l != nil {
			return l
		}
	}
	return slog.Default()
}
