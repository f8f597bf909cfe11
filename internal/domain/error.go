package domain

import (
	"errors"
	"fmt"
)

// Error codes. Handlers map each to one HTTP status.
const (
	ECONFLICT     = "conflict"         // 409: stock, cart drift, duplicate item name
	EINTERNAL     = "internal"         // 500: bug or unexpected failure, details hidden
	EINVALID      = "invalid"          // 400: bad input
	ENOTFOUND     = "not_found"        // 404
	EUNAUTHORIZED = "unauthorized"     // 401: missing or bad X-Auth-Token
	EFORBIDDEN    = "forbidden"        // 403: token has the wrong role
	EPAYMENT      = "payment_required" // 402: balance too low for the order
	ETOOLARGE     = "too_large"        // 413
	ERATELIMIT    = "rate_limit"       // 429
	EUNAVAILABLE  = "unavailable"      // 503: ledger, cart store, or catalog failed
)

// Messages returned instead of Error.Message for codes whose details must not reach callers.
const (
	msgInternal    = "An internal error occurred. Please try again later."
	msgUnavailable = "A required service is unavailable. Please try again later."
	msgValidation  = "Request validation failed"
)

// Error is an application error. Message is safe to show callers; Op and
// Err are for logs.
type Error struct {
	Code    string
	Message string
	Op      string // e.g. "cart.add"
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode returns the code of the first *Error in err's chain. Validation
// errors are EINVALID; anything else is EINTERNAL.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := asError(err); ok {
		return e.Code
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return EINVALID
	}
	return EINTERNAL
}

// ErrorMessage returns the caller-facing message for err.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := asError(err); ok {
		switch e.Code {
		case EINTERNAL:
			return msgInternal
		case EUNAVAILABLE:
			return msgUnavailable
		}
		return e.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return msgValidation
	}
	return msgInternal
}

// ErrorOp returns the operation recorded on err, if any.
func ErrorOp(err error) string {
	if e, ok := asError(err); ok {
		return e.Op
	}
	return ""
}

func asError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Errorf creates an error with a formatted message.
//
//	domain.Errorf(domain.EINVALID, "cart.update", "count must be positive: %d", n)
func Errorf(code, op, format string, args ...any) error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a code, op and message to err. A nil err stays nil.
func WrapError(err error, code, op, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Message: message, Err: err}
}

// Internal wraps err as EINTERNAL. err may be nil.
func Internal(err error, op, message string) error {
	return &Error{Code: EINTERNAL, Op: op, Message: message, Err: err}
}

// Unavailable marks a collaborator failure (network, timeout, storage).
// Errors that already carry a domain code are returned unchanged, so a
// ledger's ErrNotEnoughBalance stays a 402 and not a 503.
func Unavailable(err error, op, message string) error {
	if err == nil {
		return nil
	}
	if _, ok := asError(err); ok {
		return err
	}
	return &Error{Code: EUNAVAILABLE, Op: op, Message: message, Err: err}
}

// NotFound reports a missing resource: "product not found: 42".
func NotFound(op, resource, identifier string) error {
	return Errorf(ENOTFOUND, op, "%s not found: %s", resource, identifier)
}

func Unauthorized(op, message string) error {
	return &Error{Code: EUNAUTHORIZED, Op: op, Message: message}
}

func Forbidden(op, message string) error {
	return &Error{Code: EFORBIDDEN, Op: op, Message: message}
}

// Invalid reports one input problem that is not tied to a field.
func Invalid(op, message string) error {
	return &Error{Code: EINVALID, Op: op, Message: message}
}

// ValidationError collects field failures of one request body.
// Keys are JSON paths such as "items[0].id".
type ValidationError struct {
	Fields map[string]string
	Op     string
}

func (e *ValidationError) Error() string {
	prefix := ""
	if e.Op != "" {
		prefix = e.Op + ": "
	}
	if len(e.Fields) == 1 {
		for field, msg := range e.Fields {
			return prefix + field + ": " + msg
		}
	}
	return fmt.Sprintf("%svalidation failed for %d fields", prefix, len(e.Fields))
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(op, field, message string) error {
	return &ValidationError{Op: op, Fields: map[string]string{field: message}}
}

// AddFieldError adds a field failure to err, creating a ValidationError when
// err is not one already.
func AddFieldError(err error, field, message string) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		ve.Fields[field] = message
		return ve
	}
	return &ValidationError{Fields: map[string]string{field: message}}
}

// GetValidationFields returns the field failures in err, or nil.
func GetValidationFields(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}
