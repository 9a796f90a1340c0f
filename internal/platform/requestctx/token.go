package requestctx

import (
	"context"
	"strings"
)

// bearerTokenContextKey is the context key for the caller's API credential.
type bearerTokenContextKey struct{}

// WithBearerToken stores the caller's bearer token in context.
func WithBearerToken(ctx context.Context, token string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, bearerTokenContextKey{}, strings.TrimSpace(token))
}

// BearerTokenFromContext returns the bearer token stored in context.
func BearerTokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(bearerTokenContextKey{}).(string)
	return value
}

// BearerTokenFromHeader extracts the token from an Authorization header value.
// Schemes other than Bearer yield an empty token.
func BearerTokenFromHeader(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
