package middleware

import (
	"context"
	"net/http"

	"github.com/dukerupert/cartsync/internal/auth"
	"github.com/dukerupert/cartsync/internal/domain"
	"github.com/dukerupert/cartsync/internal/telemetry"
)

// TokenVerifier checks an X-Auth-Token for a required role.
type TokenVerifier interface {
	User(token, role string) (*domain.User, error)
}

// RequireRole rejects requests whose X-Auth-Token is missing, invalid, or
// carries a different role. The verified user is put in the request context.
func RequireRole(verifier TokenVerifier, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(auth.HeaderName)
			if token == "" {
				respondUnauthorized(w, r)
				return
			}

			user, err := verifier.User(token, role)
			if err != nil {
				respondWithError(w, r, err)
				return
			}

			ctx := domain.NewContextWithUser(r.Context(), user)
			ctx = WithLogger(ctx, GetLogger(ctx).With("user_id", user.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCustomer is RequireRole for CUSTOMER tokens.
func RequireCustomer(verifier TokenVerifier) func(http.Handler) http.Handler {
	return RequireRole(verifier, domain.RoleCustomer)
}

// RequireSeller is RequireRole for SELLER tokens.
func RequireSeller(verifier TokenVerifier) func(http.Handler) http.Handler {
	return RequireRole(verifier, domain.RoleSeller)
}

// GetUserFromContext retrieves the authenticated user, or nil.
func GetUserFromContext(r *http.Request) *domain.User {
	return domain.UserFromContext(r.Context())
}

// SentryUser reports the authenticated user to Sentry. Use with
// telemetry.SentryContextMiddleware after RequireRole.
func SentryUser(ctx context.Context) *telemetry.UserInfo {
	user := domain.UserFromContext(ctx)
	if user == nil {
		return nil
	}
	return &telemetry.UserInfo{ID: user.ID, Email: user.Email, Role: user.Role}
}
