package logging

import (
	"context"
	"log/slog"

	"adscope/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRequestID is the standardized structured logging key for request correlation identifiers.
	FieldRequestID = "request_id"
	// FieldAdID is the standardized structured logging key for content-derived ad identifiers.
	FieldAdID = "ad_id"
	// FieldModality is the standardized structured logging key for the classified media modality.
	FieldModality = "modality"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRequestID, id))
	}
	if id, ok := services.AdIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldAdID, id))
	}
	if modality, ok := services.ModalityFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldModality, modality))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
