// Package requestid propagates a per-request correlation ID through
// inbound headers and request contexts.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type idKey struct{}

var headersToSearch = []string{
	"Request-Id", "X-Request-Id",
}

// FromRequest fetches the request's correlation ID if it carries one,
// and generates a new random ID if it does not. The generated ID is
// written back onto the request headers so later stages agree on it.
func FromRequest(r *http.Request) (id string, ok bool) {
	for _, try := range headersToSearch {
		if id = r.Header.Get(try); id != "" {
			return id, true
		}
	}

	newID := uuid.New().String()
	r.Header.Set("X-Request-Id", newID)
	return newID, false
}

// WithRequestID adds the given request ID to ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, idKey{}, id)
}

// FromContext fetches the request ID from ctx if one was set.
func FromContext(ctx context.Context) (id string, ok bool) {
	id, ok = ctx.Value(idKey{}).(string)
	return
}

// Middleware resolves the request's correlation ID and stores it on the
// request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := FromRequest(r)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
	})
}
