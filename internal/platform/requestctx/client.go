package requestctx

import (
	"context"
	"strings"
)

// clientIDContextKey is the context key for the browser client identifier.
type clientIDContextKey struct{}

// WithClientID stores the caller's client identifier in context.
func WithClientID(ctx context.Context, clientID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, clientIDContextKey{}, strings.TrimSpace(clientID))
}

// ClientIDFromContext returns the client identifier stored in context.
func ClientIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(clientIDContextKey{}).(string)
	return value
}
