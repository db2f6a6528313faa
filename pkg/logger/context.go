package logger

import (
	"context"
	"log/slog"
)

// contextKey keeps the stored logger private to this package; an unexported
// struct key cannot collide with context values set elsewhere.
type contextKey struct{}

// With derives a context whose logger carries the extra fields. Middleware
// uses it to attach trace fields that survive into domain code.
func With(ctx context.Context, fields ...any) context.Context {
	return context.WithValue(ctx, contextKey{}, From(ctx).With(fields...))
}

// From returns the context logger, falling back to the process default.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return l
	}
	return LoggerWrapper()
}
