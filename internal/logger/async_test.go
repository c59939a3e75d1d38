package logger

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// sink collects records; gate, when set, blocks Handle until closed.
type sink struct {
	mu    sync.Mutex
	recs  []slog.Record
	gate  chan struct{}
	attrs []slog.Attr
}

func (s *sink) Enabled(context.Context, slog.Level) bool { return true }

func (s *sink) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler signature
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.AddAttrs(s.attrs...)
	s.recs = append(s.recs, rec)
	return nil
}

func (s *sink) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &child{parent: s, attrs: attrs}
}

func (s *sink) WithGroup(string) slog.Handler { return s }

func (s *sink) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.recs))
	for i, r := range s.recs {
		out[i] = r.Message
	}
	return out
}

func (s *sink) find(msg string) (slog.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.recs {
		if r.Message == msg {
			return r, true
		}
	}
	return slog.Record{}, false
}

// child forwards to the parent sink with extra attributes attached.
type child struct {
	parent *sink
	attrs  []slog.Attr
}

func (c *child) Enabled(context.Context, slog.Level) bool { return true }

func (c *child) Handle(ctx context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler signature
	rec.AddAttrs(c.attrs...)
	return c.parent.Handle(ctx, rec)
}

func (c *child) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &child{parent: c.parent, attrs: append(append([]slog.Attr{}, c.attrs...), attrs...)}
}

func (c *child) WithGroup(string) slog.Handler { return c }

func TestAsyncHandlerFlushesOnClose(t *testing.T) {
	s := &sink{}
	h := NewAsyncHandler(s, 64, 2)
	log := slog.New(h)

	for range 20 {
		log.Info("payment upserted")
	}
	h.Close()

	if got := len(s.messages()); got != 20 {
		t.Fatalf("got %d records after Close, want 20", got)
	}
	if h.Dropped() != 0 {
		t.Errorf("dropped = %d, want 0", h.Dropped())
	}
}

func TestAsyncHandlerDropsInfoWhenFull(t *testing.T) {
	s := &sink{gate: make(chan struct{})}
	h := NewAsyncHandler(s, 1, 1)
	log := slog.New(h)

	// One record is held by the blocked worker, one fills the buffer.
	log.Info("first")
	time.Sleep(20 * time.Millisecond)
	log.Info("second")
	for range 5 {
		log.Info("overflow")
	}

	if h.Dropped() != 5 {
		t.Fatalf("dropped = %d, want 5", h.Dropped())
	}

	close(s.gate)
	h.Close()

	warn, ok := s.find("async logger dropped records")
	if !ok {
		t.Fatalf("missing drop warning, got %v", s.messages())
	}
	var n int64
	warn.Attrs(func(a slog.Attr) bool {
		if a.Key == "dropped" {
			n = a.Value.Int64()
		}
		return true
	})
	if n != 5 {
		t.Errorf("warning reports %d dropped, want 5", n)
	}
}

func TestAsyncHandlerErrorsWaitForSpace(t *testing.T) {
	s := &sink{gate: make(chan struct{})}
	h := NewAsyncHandler(s, 1, 1)
	log := slog.New(h)

	log.Info("first")
	time.Sleep(20 * time.Millisecond)
	log.Info("second")

	done := make(chan struct{})
	go func() {
		log.Error("upsert failed")
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("error record should block while the buffer is full")
	case <-time.After(50 * time.Millisecond):
	}

	close(s.gate)
	<-done
	h.Close()

	if _, ok := s.find("upsert failed"); !ok {
		t.Errorf("error record lost, got %v", s.messages())
	}
	if h.Dropped() != 0 {
		t.Errorf("dropped = %d, want 0", h.Dropped())
	}
}

func TestAsyncHandlerKeepsDerivedAttrs(t *testing.T) {
	s := &sink{}
	h := NewAsyncHandler(s, 8, 1)
	slog.New(h).With("tenant_id", "t1").Info("listed")
	h.Close()

	rec, ok := s.find("listed")
	if !ok {
		t.Fatal("record missing")
	}
	var tenant string
	rec.Attrs(func(a slog.Attr) bool {
		if a.Key == "tenant_id" {
			tenant = a.Value.String()
		}
		return true
	})
	if tenant != "t1" {
		t.Errorf("tenant_id = %q, want t1", tenant)
	}
}

func TestAsyncHandlerCloseTwice(t *testing.T) {
	h := NewAsyncHandler(&sink{}, 1, 1)
	h.Close()
	h.Close()
}
