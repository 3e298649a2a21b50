package asvgf

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/asvgf/internal/framebuffer"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for asvgf and its sub-packages.
// By default nothing is logged. Pass nil to restore silence.
//
// SetLogger is safe for concurrent use.
//
// Log levels used by asvgf:
//   - [slog.LevelDebug]: buffer allocation, per-stage timings
//   - [slog.LevelInfo]: backend selection
//   - [slog.LevelWarn]: unknown properties, CPU fallback
//
// Example:
//
//	asvgf.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	framebuffer.SetLogger(l)

	providerMu.RLock()
	ps := make([]BackendProvider, 0, len(providers))
	for _, p := range providers {
		ps = append(ps, p)
	}
	providerMu.RUnlock()
	for _, p := range ps {
		propagateLogger(p, l)
	}
}

// Logger returns the current logger. Sub-packages such as gpu/ call it to
// share the configuration without an import cycle.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by providers and backends that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

func propagateLogger(v any, l *slog.Logger) {
	if ls, ok := v.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
