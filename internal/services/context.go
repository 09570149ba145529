package services

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	adIDKey      contextKey = "ad_id"
	modalityKey  contextKey = "modality"
)

// WithRequestID annotates context with a correlation identifier for the request.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(requestIDKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithAdID annotates context with the content-derived ad identifier.
func WithAdID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, adIDKey, id)
}

// AdIDFromContext extracts the ad identifier if present.
func AdIDFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(adIDKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithModality annotates context with the classified media modality.
func WithModality(ctx context.Context, modality string) context.Context {
	if modality == "" {
		return ctx
	}
	return context.WithValue(ctx, modalityKey, modality)
}

// ModalityFromContext extracts the media modality if present.
func ModalityFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(modalityKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}
