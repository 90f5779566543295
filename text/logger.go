package text

import (
	"log/slog"

	"github.com/gogpu/rrect"
)

// slogger returns the logger shared with the rrect package, configured
// through rrect.SetLogger.
func slogger() *slog.Logger {
	return rrect.Logger()
}
