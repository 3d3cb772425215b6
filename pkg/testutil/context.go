package testutil

import (
	"context"
	"net/http"
	"time"

	"bidrag/pkg/requestcontext"
)

// WithCaseworker adds a caseworker ident to the request context.
// This simulates what the auth middleware would do for authenticated requests.
func WithCaseworker(req *http.Request, ident string) *http.Request {
	return req.WithContext(requestcontext.WithCaseworker(req.Context(), ident))
}

// WithRequestTime pins the request-scoped clock.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), key, value))
}
