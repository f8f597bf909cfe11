// Package domain provides the core cart, catalog, and order types for cartsync,
// the collaborator interfaces the engine depends on, and request context helpers.
package domain

import "context"

type ctxKey struct{ name string }

var (
	userKey      = ctxKey{"user"}
	requestIDKey = ctxKey{"request_id"}
)

// NewContextWithUser attaches the authenticated caller to ctx.
func NewContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the caller set by the auth middleware, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userKey).(*User)
	return u
}

func NewContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns "" outside a request.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
