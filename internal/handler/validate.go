package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/cartsync/internal/domain"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// validatorInstance reports field names by their json tag.
func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// DecodeJSON decodes the request body into dst and validates it.
// Malformed bodies are EINVALID; failed validation is a ValidationError.
func DecodeJSON(r *http.Request, op string, dst any) error {
	if r.Body == nil {
		return domain.Invalid(op, "Request body is required")
	}

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return domain.Errorf(domain.ETOOLARGE, op, "Request body too large")
		case errors.Is(err, io.EOF):
			return domain.Invalid(op, "Request body is required")
		default:
			return domain.WrapError(err, domain.EINVALID, op, "Malformed JSON body")
		}
	}

	return Validate(op, dst)
}

// Validate runs struct validation and converts failures to a ValidationError.
func Validate(op string, v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.WrapError(err, domain.EINVALID, op, "Invalid request")
	}

	ve := &domain.ValidationError{Op: op, Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		ve.Fields[fieldPath(fe)] = fieldMessage(fe)
	}
	return ve
}

// fieldPath drops the top-level struct name: "AddToCartRequest.items[0].id" -> "items[0].id".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at least %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// QueryInt64 parses a required positive integer query parameter.
func QueryInt64(r *http.Request, op, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, domain.NewValidationError(op, name, "is required")
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, domain.NewValidationError(op, name, "must be a positive integer")
	}
	return v, nil
}
