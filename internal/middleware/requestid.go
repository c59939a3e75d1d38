// Package middleware holds the HTTP middleware shared by SchoolPay routes.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Strob0t/SchoolPay/internal/logger"
)

const (
	headerRequestID = "X-Request-ID"
	maxRequestIDLen = 128
)

// RequestID reuses the caller's X-Request-ID (n8n forwards its execution
// id there) or assigns a UUID. The id is echoed on the response and stored
// in the context for logger.From.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if !printableASCII(id, maxRequestIDLen) {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

// printableASCII reports whether s is non-empty, at most limit bytes and
// made only of visible ASCII characters, so it is safe to echo and log.
func printableASCII(s string, limit int) bool {
	if s == "" || len(s) > limit {
		return false
	}
	for _, c := range []byte(s) {
		if c <= ' ' || c > '~' {
			return false
		}
	}
	return true
}
