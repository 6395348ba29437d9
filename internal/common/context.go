package common

import (
	"context"
	"time"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyActorID   contextKey = "actor_id"
	ContextKeyBatchID   contextKey = "batch_id"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithActorID records the acting user on the context.
func WithActorID(ctx context.Context, actorID int64) context.Context {
	return context.WithValue(ctx, ContextKeyActorID, actorID)
}

// ActorIDFromContext returns the acting user, or 0 when none was set.
func ActorIDFromContext(ctx context.Context) int64 {
	if id, ok := ctx.Value(ContextKeyActorID).(int64); ok {
		return id
	}
	return 0
}

// WithBatchID tags the context with the batch being processed.
func WithBatchID(ctx context.Context, batchID string) context.Context {
	return context.WithValue(ctx, ContextKeyBatchID, batchID)
}

// BatchIDFromContext extracts the batch ID from context
func BatchIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyBatchID).(string); ok {
		return id
	}
	return ""
}

// WithTimeout creates a context with the specified timeout. A non-positive
// timeout returns a cancelable context with no deadline.
func WithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
