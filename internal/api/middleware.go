package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// contextKey is a private type so request-scoped values set here cannot
// collide with keys from other packages.
type contextKey string

const requestIDKey contextKey = "request_id"

// requestIDHeader is the header clients may set to correlate a request with
// their own logs. When absent, a fresh UUID is minted.
const requestIDHeader = "X-Request-ID"

// requestIDMiddleware ensures every request carries an ID, echoes it back on
// the response, and stores it in the request context for handlers and logs.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set(requestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestIDFromContext returns the request ID set by requestIDMiddleware, or
// an empty string when the middleware did not run (for example in tests that
// call handlers directly).
func requestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}
