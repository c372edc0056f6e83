package framebridge

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called while frames are in flight.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for framebridge and all its sub-packages.
// By default nothing is logged. Pass nil to restore the silent default.
//
// Log levels used by framebridge:
//   - [slog.LevelDebug]: per-frame diagnostics (dispatch, buffer reuse, texture import)
//   - [slog.LevelInfo]: lifecycle events (handshake established, engine initialized)
//   - [slog.LevelWarn]: recoverable anomalies (stale responses, dropped notifications)
//   - [slog.LevelError]: resource lifecycle violations
//
// Example:
//
//	framebridge.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger used by framebridge.
// Sub-packages call this so that one SetLogger call configures the whole
// pipeline without import cycles.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
