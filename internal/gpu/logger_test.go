package gpu

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/rrect"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	rrect.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { rrect.SetLogger(nil) })
	return &buf
}

func TestFrameControllerLogsRecovery(t *testing.T) {
	f := newFrameFixture(t)
	buf := captureLog(t)

	f.surface.acquireErrs = []error{rrect.ErrSurfaceLost}
	_ = f.fc.RenderFrame()

	out := buf.String()
	if !strings.Contains(out, "level=DEBUG") || !strings.Contains(out, "reconfiguring surface") {
		t.Errorf("recovery not logged at debug: %s", out)
	}
	if !strings.Contains(out, "width=800") || !strings.Contains(out, "height=600") {
		t.Errorf("recovery log lacks stored size: %s", out)
	}
}

func TestFrameControllerLogsStalledSubmission(t *testing.T) {
	f := newFrameFixture(t)
	f.fc.waitTimeout = time.Millisecond
	buf := captureLog(t)

	f.queue.stalled = true
	_ = f.fc.RenderFrame()
	f.queue.stalled = false

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "still in flight") {
		t.Errorf("stalled submission not logged at warn: %s", out)
	}
}

func TestOpenDeviceLogsAdapter(t *testing.T) {
	buf := captureLog(t)
	d, err := OpenDevice(t.Context(), DeviceOptions{Backend: BackendNoop})
	if err != nil {
		t.Fatalf("OpenDevice failed: %v", err)
	}
	defer d.Close()
	if out := buf.String(); !strings.Contains(out, "level=INFO") || !strings.Contains(out, "device opened") {
		t.Errorf("device open not logged at info: %s", out)
	}
}
