package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"

	// Header carries the request id between the portal and its callers.
	Header = "X-Request-ID"
)

func Generate() string {
	return uuid.New().String()
}

func ToContext(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// FromContext returns the request id stored in ctx, or an empty string.
func FromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

func FromRequest(r *http.Request) string {
	return FromContext(r.Context())
}
