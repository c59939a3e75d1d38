package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const headerTenantID = "X-Tenant-ID"

type tenantCtxKey struct{}

// RequireTenant is middleware for the read API. It requires a UUID in the
// X-Tenant-ID header, stores it in the request context, and rejects the
// request with 400 otherwise.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(headerTenantID)
		if raw == "" {
			writeJSONError(w, http.StatusBadRequest, "X-Tenant-ID header is required")
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "X-Tenant-ID must be a UUID")
			return
		}
		ctx := WithTenantID(r.Context(), id.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithTenantID returns a copy of ctx carrying the tenant ID.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantCtxKey{}, tenantID)
}

// TenantIDFromContext returns the tenant ID stored in ctx, or "" if absent.
func TenantIDFromContext(ctx context.Context) string {
	tid, _ := ctx.Value(tenantCtxKey{}).(string)
	return tid
}

// writeJSONError writes {"error": msg}. msg must not need JSON escaping.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
