package observability

import (
	"context"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// RequestIDKey is the context key under which the request ID is stored.
var RequestIDKey = requestIDKey{}

func NewRequestID() string {
	return uuid.NewString()
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestIDFromContext returns "" when ctx carries no request ID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}
