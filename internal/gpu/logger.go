package gpu

import (
	"log/slog"

	"github.com/gogpu/rrect"
)

// slogger returns the current package logger.
// All logging in internal/gpu goes through this function so that
// rrect.SetLogger configures it.
func slogger() *slog.Logger { return rrect.Logger() }
