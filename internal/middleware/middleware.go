// Package middleware holds the HTTP middleware shared by every cartsync route.
package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/dukerupert/cartsync/internal/domain"
	"github.com/dukerupert/cartsync/internal/telemetry"
)

type contextKey string

var statusByCode = map[string]int{
	domain.EINVALID:      http.StatusBadRequest,
	domain.EUNAUTHORIZED: http.StatusUnauthorized,
	domain.EPAYMENT:      http.StatusPaymentRequired,
	domain.EFORBIDDEN:    http.StatusForbidden,
	domain.ENOTFOUND:     http.StatusNotFound,
	domain.ECONFLICT:     http.StatusConflict,
	domain.ETOOLARGE:     http.StatusRequestEntityTooLarge,
	domain.ERATELIMIT:    http.StatusTooManyRequests,
	domain.EUNAVAILABLE:  http.StatusServiceUnavailable,
}

// ErrorCodeToHTTPStatus maps a domain error code to its response status.
// Unknown codes are 500.
func ErrorCodeToHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondWithError is the middleware copy of handler.ErrorResponse; handler
// imports this package, so the reverse import is not possible.
func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)

	log := GetLogger(r.Context()).With("error", err.Error(), "code", code, "status", status)
	if status >= http.StatusInternalServerError {
		log.Error("request rejected by middleware")
		telemetry.CaptureErrorFromContext(r.Context(), err, nil)
	} else {
		log.Info("request rejected by middleware")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]map[string]string{
		"error": {"code": code, "message": domain.ErrorMessage(err)},
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn("failed to encode error response", "encode_error", err)
	}
}

func respondUnauthorized(w http.ResponseWriter, r *http.Request) {
	respondWithError(w, r, domain.Unauthorized("", "Authentication required"))
}

func respondTooManyRequests(w http.ResponseWriter, r *http.Request) {
	respondWithError(w, r, domain.Errorf(domain.ERATELIMIT, "", "Too many requests"))
}

func respondTooLarge(w http.ResponseWriter, r *http.Request) {
	respondWithError(w, r, domain.Errorf(domain.ETOOLARGE, "", "Request body too large"))
}

func respondTimeout(w http.ResponseWriter, r *http.Request) {
	respondWithError(w, r, domain.Errorf(domain.EUNAVAILABLE, "", "Request timed out"))
}
