package infrastructure

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

// TraceIDContextKey holds the trace id; for a pipeline run it is the run id.
const TraceIDContextKey contextKey = "trace_id"

// WithTraceID returns ctx carrying traceID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDContextKey, traceID)
}

// GetTraceID returns the trace id in ctx, or "".
func GetTraceID(ctx context.Context) string {
	id, _ := ctx.Value(TraceIDContextKey).(string)
	return id
}

// EnsureTraceID returns ctx with a trace ID, generating a UUID if needed,
// and the ID itself.
func EnsureTraceID(ctx context.Context) (context.Context, string) {
	if id := GetTraceID(ctx); id != "" {
		return ctx, id
	}
	id := uuid.New().String()
	return WithTraceID(ctx, id), id
}
