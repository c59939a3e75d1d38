// Package logger sets up structured JSON logging for SchoolPay.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Strob0t/SchoolPay/internal/config"
)

const (
	asyncBufferSize = 4096
	asyncWorkers    = 2
)

// New builds the process logger writing JSON to stdout. Every record
// carries a "service" attribute. The Closer flushes buffered output when
// cfg.Async is set and does nothing otherwise.
func New(cfg config.Logging) (*slog.Logger, Closer) {
	return newLogger(os.Stdout, cfg)
}

func newLogger(w io.Writer, cfg config.Logging) (*slog.Logger, Closer) {
	var h slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(cfg.Level)})

	var closer Closer = nopCloser{}
	if cfg.Async {
		ah := NewAsyncHandler(h, asyncBufferSize, asyncWorkers)
		h, closer = ah, ah
	}
	return slog.New(h).With("service", cfg.Service), closer
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
