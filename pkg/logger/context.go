package logger

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ctxKey keeps the logger entry distinct from any other context value
type ctxKey struct{}

// WithLogger stores a request-scoped logger on the context
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext resolves the logger for a request. Handlers normally get the
// child logger the request-id middleware set on the Echo context; requests
// that bypassed the middleware fall back to the request's Go context and
// finally to the process-wide logger.
func FromContext(c echo.Context) *zap.Logger {
	if l, ok := c.Get("logger").(*zap.Logger); ok {
		return l
	}
	if l, ok := c.Request().Context().Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.L()
}
