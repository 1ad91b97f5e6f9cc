package services

import "context"

type contextKey string

const (
	mirrorIDKey      contextKey = "mirror_id"
	alternativeIDKey contextKey = "alternative_id"
	operationKey     contextKey = "operation"
	requestIDKey     contextKey = "request_id"
)

// WithMirrorID annotates context with the mirror identifier.
func WithMirrorID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, mirrorIDKey, id)
}

// MirrorIDFromContext extracts the mirror identifier if present.
func MirrorIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(mirrorIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithAlternativeID annotates context with the language alternative identifier.
func WithAlternativeID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, alternativeIDKey, id)
}

// AlternativeIDFromContext extracts the language alternative identifier if present.
func AlternativeIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(alternativeIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithOperation annotates context with the engine operation name (sync, cleanup, create).
func WithOperation(ctx context.Context, operation string) context.Context {
	if operation == "" {
		return ctx
	}
	return context.WithValue(ctx, operationKey, operation)
}

// OperationFromContext returns the operation name if present.
func OperationFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(operationKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
