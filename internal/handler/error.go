// Package handler holds the JSON HTTP helpers shared by the storefront and seller handlers.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/dukerupert/cartsync/internal/domain"
	"github.com/dukerupert/cartsync/internal/middleware"
	"github.com/dukerupert/cartsync/internal/telemetry"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse logs err and writes it as {"error":{"code","message"}}.
// Validation errors also carry "fields". 5xx errors are reported to Sentry.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	status := middleware.ErrorCodeToHTTPStatus(code)

	logger := middleware.GetLogger(r.Context())
	attrs := []any{
		"error", err.Error(),
		"code", code,
		"op", domain.ErrorOp(err),
		"status", status,
	}
	if status >= 500 {
		logger.Error("request failed", attrs...)
		telemetry.CaptureErrorFromContext(r.Context(), err, map[string]any{
			"op":   domain.ErrorOp(err),
			"code": code,
		})
	} else {
		logger.Info("request rejected", attrs...)
	}

	WriteJSON(w, status, errorBody{Error: errorDetail{
		Code:    code,
		Message: domain.ErrorMessage(err),
		Fields:  domain.GetValidationFields(err),
	}})
}

// NotFoundResponse writes a 404.
func NotFoundResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Errorf(domain.ENOTFOUND, "", "The requested resource was not found"))
}

// UnauthorizedResponse writes a 401.
func UnauthorizedResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Errorf(domain.EUNAUTHORIZED, "", "Authentication required"))
}

// ForbiddenResponse writes a 403.
func ForbiddenResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Errorf(domain.EFORBIDDEN, "", "You don't have permission to access this resource"))
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}
