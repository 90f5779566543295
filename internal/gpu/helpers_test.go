package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rrect"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// newNoopDevice opens a device on the noop backend and registers its
// cleanup with t.
func newNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

// fakeWindow is a Window with settable size and scale.
type fakeWindow struct {
	w, h  uint32
	scale float64
}

func (w *fakeWindow) Size() (uint32, uint32) { return w.w, w.h }
func (w *fakeWindow) ScaleFactor() float64   { return w.scale }

// fakeSurface renders into an offscreen texture, injects acquire errors
// and logs every call.
type fakeSurface struct {
	*OffscreenSurface
	acquireErrs []error
	configured  []rrect.Size
	log         *[]string
}

func newFakeSurface(t *testing.T, device hal.Device, queue hal.Queue, log *[]string) *fakeSurface {
	t.Helper()
	s := &fakeSurface{
		OffscreenSurface: NewOffscreenSurface(device, queue, gputypes.TextureFormatBGRA8UnormSrgb),
		log:              log,
	}
	t.Cleanup(s.Destroy)
	return s
}

func (s *fakeSurface) Configure(w, h uint32) error {
	s.configured = append(s.configured, rrect.Size{Width: w, Height: h})
	*s.log = append(*s.log, "configure")
	return s.OffscreenSurface.Configure(w, h)
}

func (s *fakeSurface) Acquire() (hal.TextureView, error) {
	*s.log = append(*s.log, "acquire")
	if len(s.acquireErrs) > 0 {
		err := s.acquireErrs[0]
		s.acquireErrs = s.acquireErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return s.OffscreenSurface.Acquire()
}

func (s *fakeSurface) Present() error {
	*s.log = append(*s.log, "present")
	s.OffscreenSurface.Discard()
	return nil
}

func (s *fakeSurface) Discard() {
	*s.log = append(*s.log, "discard")
	s.OffscreenSurface.Discard()
}

// fakeOverlay is a TextOverlay that logs its calls.
type fakeOverlay struct {
	prepareErr error
	sizes      []rrect.Size
	destroyed  bool
	log        *[]string
}

func (o *fakeOverlay) Prepare(w, h uint32) error {
	*o.log = append(*o.log, "prepare")
	o.sizes = append(o.sizes, rrect.Size{Width: w, Height: h})
	return o.prepareErr
}

func (o *fakeOverlay) Render(hal.RenderPassEncoder) { *o.log = append(*o.log, "render") }

func (o *fakeOverlay) Trim()    { *o.log = append(*o.log, "trim") }
func (o *fakeOverlay) Destroy() { o.destroyed = true }

func (o *fakeOverlay) factory() OverlayFactory {
	return func(hal.Device, hal.Queue, gputypes.TextureFormat, hal.Buffer) (TextOverlay, error) {
		return o, nil
	}
}

var errPrepare = errors.New("prepare failed")

// scriptedQueue fails submissions or holds back their completion.
type scriptedQueue struct {
	hal.Queue
	submitErr error
	stalled   bool
}

func (q *scriptedQueue) Submit(cmds []hal.CommandBuffer) (uint64, error) {
	if q.submitErr != nil {
		return 0, q.submitErr
	}
	return q.Queue.Submit(cmds)
}

func (q *scriptedQueue) PollCompleted() uint64 {
	if q.stalled {
		return 0
	}
	return q.Queue.PollCompleted()
}

var errSubmit = errors.New("submit rejected")
