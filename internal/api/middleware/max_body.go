package middleware

import (
	"fmt"
	"net/http"

	"github.com/cloo-solutions/jobspy-mcp/internal/api"
)

// DefaultMaxBodyBytes bounds JSON-RPC messages and direct search requests.
const DefaultMaxBodyBytes int64 = 1 << 20

// MaxBodyBytes limits request body size. A non-positive limit disables it.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength > limit {
				api.Error(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", limit))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
