package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnsupportedMedia marks uploads whose declared or sniffed type is not
	// on the allow-list. Never retried.
	ErrUnsupportedMedia = errors.New("unsupported media type")
	// ErrDecode marks corrupt bytes of an otherwise supported type.
	ErrDecode = errors.New("decode failure")
	// ErrFeatureFault marks a failure inside a feature-computation group.
	ErrFeatureFault = errors.New("feature computation fault")
	// ErrTimeout marks processing that exceeded the configured budget.
	ErrTimeout = errors.New("processing timeout")
	// ErrValidation marks malformed requests (missing file field, oversize upload).
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks broken service configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks lookups that matched nothing.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrFeatureFault
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// HTTPStatus maps a classified extraction error to the response status the API
// server should emit.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrDecode), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode maps a classified error to the stable code string carried in API
// error envelopes.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedMedia):
		return "unsupported_media_type"
	case errors.Is(err, ErrDecode):
		return "decode_failure"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrConfiguration):
		return "configuration_error"
	default:
		return "internal_error"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
