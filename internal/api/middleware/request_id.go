package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// requestIDHeader is honored on inbound requests and set on every response.
const requestIDHeader = "X-Request-ID"

type contextKey string

const RequestIDKey contextKey = "request_id"

// RequestID tags each request with an ID, minting a UUID when the caller
// did not send one. The ID travels in the request context and is echoed in
// the response so clients can correlate logs.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		ctx := context.WithValue(r.Context(), RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID reads the request ID off ctx, or "" outside a request.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}
