package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextStoreKey ctxKey = "storeID"

// StoreIDFromContext returns the tenant store ID carried by the request
// context, or "" when the request is unauthenticated.
func StoreIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if storeID, ok := ctx.Value(ContextStoreKey).(string); ok {
		return storeID
	}
	return ""
}

func ContextWithStoreID(ctx context.Context, storeID string) context.Context {
	return context.WithValue(ctx, ContextStoreKey, storeID)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
