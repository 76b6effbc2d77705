package api

import "context"

type requestIDContextKey struct{}

// WithRequestID pins the X-Request-ID header for every call made under ctx.
// When absent, the client generates a fresh id per request.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

// RequestIDFromContext returns the pinned request id, or "" when none is set.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}
