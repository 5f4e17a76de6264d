package requestctx

import (
	"context"

	"go.uber.org/zap"
)

type contextKey string

const (
	loggerContextKey contextKey = "github.com/osegonte/p9-commerce/internal/platform/requestctx/logger"
	adminContextKey  contextKey = "github.com/osegonte/p9-commerce/internal/platform/requestctx/admin"
)

var noopLogger = zap.NewNop()

// WithLogger stores the logger in context for downstream consumers.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = noopLogger
	}
	return context.WithValue(ctx, loggerContextKey, logger)
}

// Logger retrieves the zap logger from context or returns a no-op logger.
func Logger(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return noopLogger
	}
	if logger, ok := ctx.Value(loggerContextKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return noopLogger
}

// NoopLogger exposes the shared noop logger instance used across the package.
func NoopLogger() *zap.Logger { return noopLogger }

// WithAdminEmail records the authenticated admin email for the request.
func WithAdminEmail(ctx context.Context, email string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, adminContextKey, email)
}

// AdminEmail returns the authenticated admin email, or "" when the request is
// unauthenticated.
func AdminEmail(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	email, _ := ctx.Value(adminContextKey).(string)
	return email
}
