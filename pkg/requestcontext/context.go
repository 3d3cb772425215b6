// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Values are set by middleware and read by services, so services do not depend on
// net/http.
//
// Usage in services (read values):
//
//	caseworker := requestcontext.Caseworker(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithCaseworker(ctx, "Z990001")
package requestcontext

import (
	"context"
	"time"
)

type (
	caseworkerKey  struct{}
	unitKey        struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyCaseworker  = caseworkerKey{}
	ContextKeyUnit        = unitKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// -----------------------------------------------------------------------------
// Caseworker (saksbehandler)
// -----------------------------------------------------------------------------

// Caseworker retrieves the authenticated caseworker ident (NAV ident).
// Returns "" if not set.
func Caseworker(ctx context.Context) string {
	if ident, ok := ctx.Value(ContextKeyCaseworker).(string); ok {
		return ident
	}
	return ""
}

// WithCaseworker injects a caseworker ident into the context.
func WithCaseworker(ctx context.Context, ident string) context.Context {
	return context.WithValue(ctx, ContextKeyCaseworker, ident)
}

// Unit retrieves the caseworker's enhet (office number), if any.
func Unit(ctx context.Context) string {
	if unit, ok := ctx.Value(ContextKeyUnit).(string); ok {
		return unit
	}
	return ""
}

// WithUnit injects the caseworker's enhet into the context.
func WithUnit(ctx context.Context, unit string) context.Context {
	return context.WithValue(ctx, ContextKeyUnit, unit)
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// -----------------------------------------------------------------------------
// Request time
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (for non-HTTP contexts like workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
// Useful for:
//   - Service unit tests that don't run the full HTTP middleware chain
//   - CLI commands
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
