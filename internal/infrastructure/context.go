package infrastructure

import (
	"context"

	"github.com/google/uuid"
)

// GenerateTraceID returns a random UUIDv4 trace ID
func GenerateTraceID() string {
	return uuid.NewString()
}

// EnsureTraceID tags ctx with a fresh trace ID unless it already carries
// one. Work started outside a request (startup warmup, CLI runs) uses it
// so its log lines can be correlated.
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) != "" {
		return ctx
	}
	return WithTraceID(ctx, GenerateTraceID())
}
