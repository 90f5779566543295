package rrect

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards every record. Enabled reports false so callers
// skip building attributes.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() { SetLogger(nil) }

// SetLogger installs the logger shared by rrect, internal/gpu and text.
// Nothing is logged by default; nil restores that.
//
// Levels:
//   - [slog.LevelDebug]: geometry and buffer uploads, atlas growth and
//     trims, surface reconfiguration after a lost or outdated frame
//   - [slog.LevelInfo]: device opened, frame controller ready
//   - [slog.LevelWarn]: skipped frames, surface recovery, submissions that
//     outlive their wait
//   - [slog.LevelError]: out of memory, which ends the event loop
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the shared logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
