package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Strob0t/SchoolPay/internal/config"
)

func newTestLimiter(rps float64, burst int) (*RateLimiter, *time.Time) {
	now := time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(config.Rate{
		RequestsPerSecond: rps,
		Burst:             burst,
		CleanupInterval:   time.Minute,
		MaxIdleTime:       10 * time.Minute,
	})
	rl.now = func() time.Time { return now }
	return rl, &now
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", http.NoBody)
	req.RemoteAddr = ip + ":5000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiterAllowsUnderLimit(t *testing.T) {
	rl, _ := newTestLimiter(10, 10)
	handler := rl.Handler(okHandler())

	for i := range 10 {
		if rec := hit(handler, "192.168.1.1"); rec.Code != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	rl, _ := newTestLimiter(10, 5)
	handler := rl.Handler(okHandler())

	for range 5 {
		hit(handler, "192.168.1.1")
	}

	rec := hit(handler, "192.168.1.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("expected Retry-After 1, got %q", rec.Header().Get("Retry-After"))
	}
	if rec.Body.String() != `{"error":"rate limit exceeded"}` {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestRateLimiterRefills(t *testing.T) {
	rl, now := newTestLimiter(2, 1)
	handler := rl.Handler(okHandler())

	hit(handler, "10.0.0.1")
	if rec := hit(handler, "10.0.0.1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	*now = now.Add(500 * time.Millisecond)
	if rec := hit(handler, "10.0.0.1"); rec.Code != http.StatusOK {
		t.Fatalf("expected refill after 500ms at 2 rps, got %d", rec.Code)
	}
}

func TestRateLimiterSetsHeaders(t *testing.T) {
	rl, _ := newTestLimiter(10, 10)
	rec := hit(rl.Handler(okHandler()), "192.168.1.1")

	if rec.Header().Get("X-RateLimit-Remaining") != "9" {
		t.Errorf("expected X-RateLimit-Remaining 9, got %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
	if rec.Header().Get("X-RateLimit-Limit") != "10" {
		t.Errorf("expected X-RateLimit-Limit 10, got %q", rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimiterPerIP(t *testing.T) {
	rl, _ := newTestLimiter(10, 2)
	handler := rl.Handler(okHandler())

	hit(handler, "10.0.0.1")
	hit(handler, "10.0.0.1")

	if rec := hit(handler, "10.0.0.1"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("IP 10.0.0.1: expected 429, got %d", rec.Code)
	}
	if rec := hit(handler, "10.0.0.2"); rec.Code != http.StatusOK {
		t.Errorf("IP 10.0.0.2: expected 200, got %d", rec.Code)
	}
}

func TestRateLimiterIgnoresForwardedFor(t *testing.T) {
	rl, _ := newTestLimiter(10, 1)
	handler := rl.Handler(okHandler())

	for i, spoof := range []string{"1.1.1.1", "2.2.2.2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/webhook", http.NoBody)
		req.RemoteAddr = "10.0.0.9:5000"
		req.Header.Set("X-Forwarded-For", spoof)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if i == 1 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("spoofed header must not grant a fresh bucket, got %d", rec.Code)
		}
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl, _ := newTestLimiter(0, 0)
	handler := rl.Handler(okHandler())

	for range 50 {
		if rec := hit(handler, "10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("disabled limiter must pass everything, got %d", rec.Code)
		}
	}
	if rl.Len() != 0 {
		t.Fatal("disabled limiter should not track buckets")
	}
}

func TestRateLimiterSweep(t *testing.T) {
	rl, now := newTestLimiter(10, 10)
	handler := rl.Handler(okHandler())

	hit(handler, "10.0.0.1")
	*now = now.Add(5 * time.Minute)
	hit(handler, "10.0.0.2")
	*now = now.Add(6 * time.Minute)

	rl.sweep()
	if rl.Len() != 1 {
		t.Fatalf("expected only the recent bucket to survive, got %d", rl.Len())
	}
}

func TestRateLimiterRunStopsOnCancel(t *testing.T) {
	rl, _ := newTestLimiter(10, 10)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rl.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
