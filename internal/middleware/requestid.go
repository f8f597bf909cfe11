package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/dukerupert/cartsync/internal/domain"
)

const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 128

// RequestID tags each request with an id, echoed in the response header. A
// caller-supplied X-Request-ID of sane length is kept so ids line up across
// hops.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(domain.NewContextWithRequestID(r.Context(), id)))
	})
}

func GetRequestID(ctx context.Context) string {
	return domain.RequestIDFromContext(ctx)
}
