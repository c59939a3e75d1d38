package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Strob0t/SchoolPay/internal/middleware"
)

func TestRequireTenantFromHeader(t *testing.T) {
	const id = "7e21c851-2a05-4440-9734-dee35e5ecc86"
	var got string
	handler := middleware.RequireTenant(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = middleware.TenantIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments", http.NoBody)
	req.Header.Set("X-Tenant-ID", "7E21C851-2A05-4440-9734-DEE35E5ECC86")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got != id {
		t.Fatalf("expected canonical %s, got %s", id, got)
	}
}

func TestRequireTenantRejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"not a uuid", "escola-alfa"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := middleware.RequireTenant(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				called = true
			}))
			req := httptest.NewRequest(http.MethodGet, "/api/v1/payments", http.NoBody)
			if tt.header != "" {
				req.Header.Set("X-Tenant-ID", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if called {
				t.Fatal("next handler must not run")
			}
		})
	}
}

func TestTenantIDFromContextMissing(t *testing.T) {
	if got := middleware.TenantIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty tenant, got %s", got)
	}
	ctx := middleware.WithTenantID(context.Background(), "t1")
	if got := middleware.TenantIDFromContext(ctx); got != "t1" {
		t.Fatalf("expected t1, got %s", got)
	}
}
