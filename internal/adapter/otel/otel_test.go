package otel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Strob0t/SchoolPay/internal/config"
)

func TestSetupDisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.OTEL{}, "schoolpay")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestNewMetrics(t *testing.T) {
	m, err := NewMetrics()
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	ctx := context.Background()
	m.PaymentsReceived.Add(ctx, 3)
	m.PaymentsInserted.Add(ctx, 2)
	m.PaymentsRejected.Add(ctx, 1)
	m.BatchDuration.Record(ctx, 0.01)
}

func TestSpansEnd(t *testing.T) {
	ctx, batch := StartBatchSpan(context.Background(), 2)
	_, upsert := StartUpsertSpan(ctx, "t1", "pay_1")
	upsert.End()
	batch.End()
}

func TestHTTPMiddlewarePassesThrough(t *testing.T) {
	h := HTTPMiddleware("schoolpay")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	for _, path := range []string{"/health", "/api/v1/payments"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))
		if rec.Code != http.StatusTeapot {
			t.Fatalf("%s: expected 418, got %d", path, rec.Code)
		}
	}
}
