package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Closer flushes buffered log output on shutdown.
type Closer interface {
	Close()
}

type nopCloser struct{}

func (nopCloser) Close() {}

// queued pairs a record with the handler chain (attrs and groups) it was
// emitted through, so all derived handlers can share one queue.
type queued struct {
	h   slog.Handler
	rec slog.Record
}

// pipeline is the state shared by an AsyncHandler and its derivatives.
type pipeline struct {
	queue   chan queued
	wg      sync.WaitGroup
	dropped atomic.Int64
	once    sync.Once
	root    slog.Handler
}

// AsyncHandler moves record formatting and I/O off the request path.
// Records below slog.LevelError are dropped when the buffer is full;
// errors always wait for a slot so failures are never lost.
type AsyncHandler struct {
	inner slog.Handler
	p     *pipeline
}

// NewAsyncHandler starts workers goroutines draining a buffer of size records.
func NewAsyncHandler(inner slog.Handler, size, workers int) *AsyncHandler {
	if workers < 1 {
		workers = 1
	}
	p := &pipeline{queue: make(chan queued, size), root: inner}
	p.wg.Add(workers)
	for range workers {
		go func() {
			defer p.wg.Done()
			for q := range p.queue {
				_ = q.h.Handle(context.Background(), q.rec)
			}
		}()
	}
	return &AsyncHandler{inner: inner, p: p}
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *AsyncHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler signature
	q := queued{h: h.inner, rec: rec.Clone()}
	if rec.Level >= slog.LevelError {
		h.p.queue <- q
		return nil
	}
	select {
	case h.p.queue <- q:
	default:
		h.p.dropped.Add(1)
	}
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithAttrs(attrs), p: h.p}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithGroup(name), p: h.p}
}

// Dropped returns how many records were discarded because the buffer was full.
func (h *AsyncHandler) Dropped() int64 {
	return h.p.dropped.Load()
}

// Close drains the buffer and stops the workers. If records were dropped,
// a final warning with the count is written synchronously. Handlers must
// not be used after Close; calling Close twice is safe.
func (h *AsyncHandler) Close() {
	h.p.once.Do(func() {
		close(h.p.queue)
		h.p.wg.Wait()
		if n := h.p.dropped.Load(); n > 0 {
			rec := slog.NewRecord(time.Now(), slog.LevelWarn, "async logger dropped records", 0)
			rec.AddAttrs(slog.Int64("dropped", n))
			_ = h.p.root.Handle(context.Background(), rec)
		}
	})
}
