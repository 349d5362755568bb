package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// WithAdminID tags the contextual logger with the authenticated admin so
// every log line downstream of the auth gate carries it.
func WithAdminID(ctx context.Context, adminID string) context.Context {
	l := FromContext(ctx)
	return WithContext(ctx, l.With("admin_id", adminID))
}
