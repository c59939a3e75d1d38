package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/Strob0t/SchoolPay/internal/logger"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"absent", "", false},
		{"n8n execution id", "n8n-exec-4821", true},
		{"max length", strings.Repeat("a", maxRequestIDLen), true},
		{"too long", strings.Repeat("a", maxRequestIDLen+1), false},
		{"space", "has space", false},
		{"tab", "tab\there", false},
		{"non-ascii", "pagamento-ç", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var inCtx string
			h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				inCtx = logger.RequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/webhook", http.NoBody)
			if tt.header != "" {
				req.Header.Set(headerRequestID, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get(headerRequestID)
			if got != inCtx {
				t.Errorf("header %q and context %q differ", got, inCtx)
			}
			if tt.keep {
				if got != tt.header {
					t.Errorf("id = %q, want caller's %q", got, tt.header)
				}
				return
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Errorf("expected generated UUID, got %q", got)
			}
		})
	}
}
