package gpu

import (
	"errors"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rrect"
	"github.com/gogpu/wgpu/hal"
)

type frameFixture struct {
	fc      *FrameController
	queue   *scriptedQueue
	surface *fakeSurface
	window  *fakeWindow
	overlay *fakeOverlay
	log     []string
}

func newFrameFixture(t *testing.T) *frameFixture {
	t.Helper()
	device, queue := newNoopDevice(t)
	f := &frameFixture{window: &fakeWindow{w: 800, h: 600, scale: 1}}
	f.surface = newFakeSurface(t, device, queue, &f.log)
	f.overlay = &fakeOverlay{log: &f.log}
	f.queue = &scriptedQueue{Queue: queue}

	fc, err := NewFrameController(FrameConfig{
		Device:  device,
		Queue:   f.queue,
		Surface: f.surface,
		Window:  f.window,
		Scene:   rrect.DefaultScene(),
	}, WithTextOverlay(f.overlay.factory()))
	if err != nil {
		t.Fatalf("NewFrameController failed: %v", err)
	}
	t.Cleanup(fc.Destroy)
	f.fc = fc
	f.log = nil
	f.surface.configured = nil
	return f
}

func TestFrameControllerStartup(t *testing.T) {
	f := newFrameFixture(t)
	if f.fc.State() != FrameConfigured {
		t.Errorf("State = %v, want Configured", f.fc.State())
	}
	if w, h := f.fc.Size(); w != 800 || h != 600 {
		t.Errorf("Size = %dx%d, want 800x600", w, h)
	}
	if w, h := f.surface.Size(); w != 800 || h != 600 {
		t.Errorf("surface configured to %dx%d, want 800x600", w, h)
	}
	if got := f.fc.Pipeline().IndexCount(); got != 12 {
		t.Errorf("IndexCount = %d, want 12", got)
	}
}

func TestFrameControllerRenderFrame(t *testing.T) {
	f := newFrameFixture(t)

	// The uniform follows the live window even before a resize event
	// reconfigured the surface.
	f.window.w, f.window.h, f.window.scale = 1024, 768, 2
	if err := f.fc.RenderFrame(); err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
	want := rrect.NewWindowUniform(1024, 768, 2)
	if got := f.fc.Uniform(); got != want {
		t.Errorf("Uniform = %+v, want %+v", got, want)
	}
	if f.fc.Frames() != 1 || f.fc.State() != FrameIdle {
		t.Errorf("Frames = %d, State = %v", f.fc.Frames(), f.fc.State())
	}
	if w, h := f.fc.Size(); w != 800 || h != 600 {
		t.Errorf("stored size changed to %dx%d without resize", w, h)
	}

	wantLog := []string{"prepare", "acquire", "render", "present", "trim"}
	if !slices.Equal(f.log, wantLog) {
		t.Errorf("call order = %v, want %v", f.log, wantLog)
	}
	if len(f.overlay.sizes) != 1 || f.overlay.sizes[0] != (rrect.Size{Width: 1024, Height: 768}) {
		t.Errorf("overlay prepared for %v", f.overlay.sizes)
	}
}

func TestFrameControllerSurfaceRecovery(t *testing.T) {
	for _, acquireErr := range []error{rrect.ErrSurfaceLost, rrect.ErrSurfaceOutdated} {
		t.Run(acquireErr.Error(), func(t *testing.T) {
			f := newFrameFixture(t)
			f.surface.acquireErrs = []error{acquireErr}
			f.window.w, f.window.h = 1000, 500

			err := f.fc.RenderFrame()
			if !errors.Is(err, acquireErr) {
				t.Fatalf("RenderFrame = %v, want %v", err, acquireErr)
			}
			if !rrect.IsSurfaceRecoverable(err) {
				t.Errorf("error %v not recoverable", err)
			}
			// Reconfigured with the stored size, not the live one.
			want := []rrect.Size{{Width: 800, Height: 600}}
			if !slices.Equal(f.surface.configured, want) {
				t.Errorf("configured = %v, want %v", f.surface.configured, want)
			}
			if slices.Contains(f.log, "present") || slices.Contains(f.log, "render") {
				t.Errorf("skipped frame recorded or presented: %v", f.log)
			}
			if f.fc.Frames() != 0 {
				t.Errorf("Frames = %d, want 0", f.fc.Frames())
			}

			if err := f.fc.RenderFrame(); err != nil {
				t.Fatalf("next RenderFrame failed: %v", err)
			}
			if f.fc.Frames() != 1 {
				t.Errorf("Frames = %d, want 1", f.fc.Frames())
			}
		})
	}
}

func TestFrameControllerUnrecoverableAcquire(t *testing.T) {
	for _, acquireErr := range []error{rrect.ErrSurfaceTimeout, rrect.ErrOutOfMemory} {
		t.Run(acquireErr.Error(), func(t *testing.T) {
			f := newFrameFixture(t)
			f.surface.acquireErrs = []error{acquireErr}

			if err := f.fc.RenderFrame(); !errors.Is(err, acquireErr) {
				t.Fatalf("RenderFrame = %v, want %v", err, acquireErr)
			}
			if len(f.surface.configured) != 0 {
				t.Errorf("surface reconfigured after %v", acquireErr)
			}
			if f.fc.State() != FrameIdle {
				t.Errorf("State = %v, want Idle", f.fc.State())
			}
		})
	}
}

func TestFrameControllerResize(t *testing.T) {
	f := newFrameFixture(t)

	ok, err := f.fc.Resize(0, 600)
	if ok || err != nil {
		t.Errorf("Resize(0, 600) = %v, %v, want false, nil", ok, err)
	}
	if len(f.surface.configured) != 0 {
		t.Errorf("zero resize reconfigured the surface: %v", f.surface.configured)
	}
	if w, h := f.fc.Size(); w != 800 || h != 600 {
		t.Errorf("Size after zero resize = %dx%d", w, h)
	}

	ok, err = f.fc.Resize(1024, 768)
	if !ok || err != nil {
		t.Fatalf("Resize(1024, 768) = %v, %v", ok, err)
	}
	if w, h := f.fc.Size(); w != 1024 || h != 768 {
		t.Errorf("Size = %dx%d, want 1024x768", w, h)
	}
	if w, h := f.surface.Size(); w != 1024 || h != 768 {
		t.Errorf("surface size = %dx%d, want 1024x768", w, h)
	}

	// A lost surface after a resize recovers to the new size.
	f.surface.acquireErrs = []error{rrect.ErrSurfaceLost}
	_ = f.fc.RenderFrame()
	last := f.surface.configured[len(f.surface.configured)-1]
	if last != (rrect.Size{Width: 1024, Height: 768}) {
		t.Errorf("recovered to %v, want 1024x768", last)
	}
}

func TestFrameControllerPrepareFailure(t *testing.T) {
	f := newFrameFixture(t)
	f.overlay.prepareErr = errPrepare

	if err := f.fc.RenderFrame(); !errors.Is(err, errPrepare) {
		t.Fatalf("RenderFrame = %v, want errPrepare", err)
	}
	if slices.Contains(f.log, "acquire") {
		t.Errorf("surface acquired after prepare failure: %v", f.log)
	}
}

func TestFrameControllerSubmitFailure(t *testing.T) {
	f := newFrameFixture(t)
	f.fc.waitTimeout = 50 * time.Millisecond
	if err := f.fc.RenderFrame(); err != nil {
		t.Fatalf("first RenderFrame failed: %v", err)
	}
	submitted := f.fc.submitted

	f.log = nil
	f.queue.submitErr = errSubmit
	if err := f.fc.RenderFrame(); !errors.Is(err, errSubmit) {
		t.Fatalf("RenderFrame = %v, want errSubmit", err)
	}
	if f.fc.submitted != submitted {
		t.Errorf("submission index moved to %d after rejected submit, want %d", f.fc.submitted, submitted)
	}
	if !slices.Contains(f.log, "discard") || slices.Contains(f.log, "present") {
		t.Errorf("calls = %v, want discard without present", f.log)
	}

	// Nothing is waited on for the rejected frame.
	f.queue.submitErr = nil
	if ok, err := f.fc.Resize(1024, 768); !ok || err != nil {
		t.Errorf("Resize after rejected submit = %v, %v", ok, err)
	}
}

func TestFrameControllerPresentsWhenWaitTimesOut(t *testing.T) {
	f := newFrameFixture(t)
	f.fc.waitTimeout = time.Millisecond
	f.queue.stalled = true

	if err := f.fc.RenderFrame(); err != nil {
		t.Fatalf("RenderFrame = %v, want nil", err)
	}
	want := []string{"prepare", "acquire", "render", "present", "trim"}
	if !slices.Equal(f.log, want) {
		t.Errorf("calls = %v, want %v", f.log, want)
	}
	if f.fc.Frames() != 1 {
		t.Errorf("Frames = %d, want 1", f.fc.Frames())
	}

	// The stuck submission still blocks reconfiguration.
	if _, err := f.fc.Resize(1024, 768); !errors.Is(err, rrect.ErrSurfaceTimeout) {
		t.Errorf("Resize = %v, want ErrSurfaceTimeout", err)
	}
	f.queue.stalled = false
}

func TestFrameControllerDestroy(t *testing.T) {
	f := newFrameFixture(t)
	if err := f.fc.RenderFrame(); err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}

	f.fc.Destroy()
	if !f.overlay.destroyed {
		t.Error("overlay not destroyed")
	}
	if f.fc.State() != FrameUninitialized {
		t.Errorf("State = %v, want Uninitialized", f.fc.State())
	}
	if err := f.fc.RenderFrame(); !errors.Is(err, errDestroyed) {
		t.Errorf("RenderFrame after Destroy = %v", err)
	}
	if _, err := f.fc.Resize(10, 10); !errors.Is(err, errDestroyed) {
		t.Errorf("Resize after Destroy = %v", err)
	}
	f.fc.Destroy()
}

func TestNewFrameControllerErrors(t *testing.T) {
	device, queue := newNoopDevice(t)
	var log []string
	surface := newFakeSurface(t, device, queue, &log)
	window := &fakeWindow{w: 800, h: 600, scale: 1}

	if _, err := NewFrameController(FrameConfig{Device: device, Queue: queue}); err == nil {
		t.Error("incomplete config accepted")
	}

	bad := rrect.NewScene(rrect.Rect{Size: rrect.V2(10, 10)})
	_, err := NewFrameController(FrameConfig{Device: device, Queue: queue, Surface: surface, Window: window, Scene: bad})
	if !errors.Is(err, rrect.ErrMissingPaint) {
		t.Errorf("scene without paint = %v, want ErrMissingPaint", err)
	}

	_, err = NewFrameController(FrameConfig{Device: device, Queue: queue, Surface: surface, Window: &fakeWindow{h: 600}})
	if !errors.Is(err, errZeroSize) {
		t.Errorf("zero window = %v, want errZeroSize", err)
	}

	factoryErr := errors.New("no text")
	_, err = NewFrameController(FrameConfig{Device: device, Queue: queue, Surface: surface, Window: window},
		WithTextOverlay(func(_ hal.Device, _ hal.Queue, _ gputypes.TextureFormat, _ hal.Buffer) (TextOverlay, error) {
			return nil, factoryErr
		}))
	if !errors.Is(err, factoryErr) {
		t.Errorf("overlay factory failure = %v", err)
	}
}

func TestFrameControllerWithoutOverlay(t *testing.T) {
	device, queue := newNoopDevice(t)
	var log []string
	surface := newFakeSurface(t, device, queue, &log)

	fc, err := NewFrameController(FrameConfig{
		Device:  device,
		Queue:   queue,
		Surface: surface,
		Window:  &fakeWindow{w: 320, h: 240, scale: 1},
	}, WithClearColor(rrect.RGBA(1, 0, 0, 1)))
	if err != nil {
		t.Fatalf("NewFrameController failed: %v", err)
	}
	defer fc.Destroy()

	if fc.Pipeline().IndexCount() != 0 {
		t.Errorf("empty scene IndexCount = %d", fc.Pipeline().IndexCount())
	}
	if err := fc.RenderFrame(); err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
}

func TestDriverWithFrameController(t *testing.T) {
	f := newFrameFixture(t)
	d := rrect.NewDriver(f.fc)

	if a := d.Step(rrect.RedrawRequested()); a.Kind != rrect.ActionContinue {
		t.Errorf("redraw action = %v", a.Kind)
	}
	f.surface.acquireErrs = []error{rrect.ErrSurfaceLost}
	if a := d.Step(rrect.RedrawRequested()); a.Kind != rrect.ActionContinue {
		t.Errorf("lost surface action = %v", a.Kind)
	}
	f.surface.acquireErrs = []error{rrect.ErrOutOfMemory}
	if a := d.Step(rrect.RedrawRequested()); a.Kind != rrect.ActionExit {
		t.Errorf("out of memory action = %v, want Exit", a.Kind)
	}
	if rendered, skipped := d.Stats(); rendered != 1 || skipped != 1 {
		t.Errorf("Stats = %d rendered, %d skipped", rendered, skipped)
	}
	if !errors.Is(d.Err(), rrect.ErrOutOfMemory) {
		t.Errorf("Err = %v", d.Err())
	}
}

func TestClearValuePremultiplies(t *testing.T) {
	got := clearValue(rrect.RGBA(0.5, 1, 0, 0.5))
	if math.Abs(got.R-0.25) > 1e-6 || math.Abs(got.G-0.5) > 1e-6 || got.B != 0 || got.A != 0.5 {
		t.Errorf("clearValue = %+v", got)
	}
}

func TestFrameStateString(t *testing.T) {
	for s, want := range map[FrameState]string{
		FrameUninitialized: "Uninitialized",
		FrameConfigured:    "Configured",
		FrameIdle:          "Idle",
		FrameRendering:     "Rendering",
		FrameState(9):      "FrameState(9)",
	} {
		if s.String() != want {
			t.Errorf("String() = %q, want %q", s.String(), want)
		}
	}
}
