package middleware

import (
	"net/http"
	"time"
)

// Deprecation returns middleware that marks a route as deprecated (RFC 8594)
// and points clients at its successor. A zero sunset omits the Sunset header.
func Deprecation(successor string, sunset time.Time) func(http.Handler) http.Handler {
	var sunsetStr string
	if !sunset.IsZero() {
		sunsetStr = sunset.UTC().Format(http.TimeFormat)
	}
	link := "<" + successor + `>; rel="successor-version"`
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Deprecation", "true")
			w.Header().Set("Link", link)
			if sunsetStr != "" {
				w.Header().Set("Sunset", sunsetStr)
			}
			next.ServeHTTP(w, r)
		})
	}
}
