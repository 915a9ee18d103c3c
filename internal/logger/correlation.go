package logger

import (
	"context"

	"github.com/google/uuid"
)

type key int

const CorrelationKey key = 0

func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationKey, id)
}

// EnsureCorrelationID returns a context that carries a correlation ID,
// generating one when the given id is empty.
func EnsureCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.New().String()
	}
	return WithCorrelationID(ctx, id)
}

func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationKey).(string); ok {
		return id
	}
	return "unknown"
}
