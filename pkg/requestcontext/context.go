// Package requestcontext provides transport-independent context accessors for
// event-scoped values. Services read values from here; the dispatcher (or a
// test) injects them, so services never depend on the chat-platform SDK.
package requestcontext

import (
	"context"
	"time"
)

type (
	updateIDKey  struct{}
	eventTimeKey struct{}
)

// UpdateID retrieves the inbound update identifier, for log correlation.
// Returns zero for contexts outside an update (timers, shutdown).
func UpdateID(ctx context.Context) int {
	if id, ok := ctx.Value(updateIDKey{}).(int); ok {
		return id
	}
	return 0
}

// WithUpdateID injects the inbound update identifier into the context.
func WithUpdateID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, updateIDKey{}, id)
}

// Now retrieves the event-scoped time from the context. Falls back to
// time.Now() for non-event contexts (timers, CLI, tests without injection).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(eventTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for tests that need
// deterministic deadlines and for handlers that want one consistent timestamp
// across a single event.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, eventTimeKey{}, t)
}
