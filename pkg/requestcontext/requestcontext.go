// Package requestcontext carries per-request metadata through context.Context.
package requestcontext

import "context"

type (
	requestIDKey struct{}
	clientIPKey  struct{}
	clientKey    struct{}
)

// WithRequestID stores the request ID on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the request ID or an empty string.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithClientIP stores the caller's IP address on the context.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the caller's IP address or an empty string.
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey{}).(string); ok {
		return v
	}
	return ""
}

// WithClient stores a short description of the calling browser, such as
// "Chrome on macOS".
func WithClient(ctx context.Context, client string) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

// Client returns the caller description or an empty string.
func Client(ctx context.Context) string {
	if v, ok := ctx.Value(clientKey{}).(string); ok {
		return v
	}
	return ""
}
