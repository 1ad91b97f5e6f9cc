package logging

import (
	"context"
	"log/slog"

	"prism/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldMirrorID is the standardized structured logging key for mirror identifiers.
	FieldMirrorID = "mirror_id"
	// FieldAlternativeID is the standardized structured logging key for language alternative identifiers.
	FieldAlternativeID = "alternative_id"
	// FieldOperation is the standardized structured logging key for engine operation names.
	FieldOperation = "operation"
	// FieldLibraryID is the standardized structured logging key for media server library identifiers.
	FieldLibraryID = "library_id"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType is the standardized structured logging key for machine-readable event names.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized structured logging key for suggested operator actions.
	FieldErrorHint = "error_hint"
	// FieldProgressPercent is the standardized structured logging key for sync progress percentages.
	FieldProgressPercent = "progress_percent"
	// FieldProgressPhase is the standardized structured logging key for sync phase names.
	FieldProgressPhase = "progress_phase"
	// FieldProgressMessage is the standardized structured logging key for human-readable progress detail.
	FieldProgressMessage = "progress_message"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.MirrorIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldMirrorID, id))
	}
	if id, ok := services.AlternativeIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldAlternativeID, id))
	}
	if op, ok := services.OperationFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldOperation, op))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
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
