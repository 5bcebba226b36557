// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values consumed by services. Keeping it free of net/http lets
// services import only what they need.
package requestcontext

import (
	"context"
	"time"
)

type requestTimeKey struct{}

// ContextKeyRequestTime is exported for tests that need context.WithValue.
var ContextKeyRequestTime = requestTimeKey{}

// Now retrieves the request-scoped time from context. Falls back to
// time.Now() when not set (workers, CLI, tests without middleware).
//
// The loan workflow reads "today" through this so tests can pin dates.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
