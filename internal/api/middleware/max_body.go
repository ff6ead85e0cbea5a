package middleware

import (
	"net/http"

	"github.com/meridian-labs/claimpilot/internal/api"
)

// MaxBodyBytes rejects request bodies over limit bytes. Oversized declared
// lengths fail fast with 413; chunked uploads are capped by a MaxBytesReader
// so a lying or absent Content-Length cannot bypass the limit. A
// non-positive limit disables the check.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
