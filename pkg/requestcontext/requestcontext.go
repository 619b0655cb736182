// Package requestcontext carries per-request metadata through context.Context.
// It exists so services can log correlation IDs and tests can pin the clock
// without threading extra parameters everywhere.
package requestcontext

import (
	"context"
	"time"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	nowKey
)

// WithRequestID returns a context carrying the correlation ID for this request.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the correlation ID, or "" when none was set.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithNow pins the evaluation clock. Tests use this to make expiry checks
// deterministic; production code leaves it unset.
func WithNow(ctx context.Context, now time.Time) context.Context {
	return context.WithValue(ctx, nowKey, now)
}

// Now returns the pinned clock if present, otherwise time.Now().
func Now(ctx context.Context) time.Time {
	if v, ok := ctx.Value(nowKey).(time.Time); ok {
		return v
	}
	return time.Now()
}
