package gpu

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rrect"
	"github.com/gogpu/wgpu/hal"
)

// Window reports the live size and scale factor of the presentation window.
type Window interface {
	Size() (width, height uint32)
	ScaleFactor() float64
}

// TextOverlay draws text on top of the rectangles in the same render pass.
type TextOverlay interface {
	// Prepare lays out and uploads everything needed for the next frame.
	Prepare(width, height uint32) error
	// Render records the overlay's draws into pass.
	Render(pass hal.RenderPassEncoder)
	// Trim releases cache entries not used since the previous Trim.
	Trim()
}

// OverlayFactory builds a TextOverlay that shares the frame's device and
// window uniform buffer.
type OverlayFactory func(device hal.Device, queue hal.Queue, format gputypes.TextureFormat, uniform hal.Buffer) (TextOverlay, error)

// FrameState is the lifecycle state of a FrameController.
type FrameState int

const (
	// FrameUninitialized is the state before startup and after Destroy.
	FrameUninitialized FrameState = iota
	// FrameConfigured means startup finished and no frame was rendered yet.
	FrameConfigured
	// FrameIdle is the state between frames.
	FrameIdle
	// FrameRendering is the state while RenderFrame runs.
	FrameRendering
)

// String returns the state name.
func (s FrameState) String() string {
	switch s {
	case FrameUninitialized:
		return "Uninitialized"
	case FrameConfigured:
		return "Configured"
	case FrameIdle:
		return "Idle"
	case FrameRendering:
		return "Rendering"
	default:
		return fmt.Sprintf("FrameState(%d)", int(s))
	}
}

// FrameConfig holds everything a FrameController needs at startup.
type FrameConfig struct {
	Device  hal.Device
	Queue   hal.Queue
	Surface Surface
	Window  Window
	Scene   rrect.Scene
}

// FrameOption configures a FrameController.
type FrameOption func(*frameOptions)

type frameOptions struct {
	clear   rrect.Color
	overlay OverlayFactory
}

// WithClearColor sets the color the surface is cleared to every frame.
// The default is linear (0.1, 0.2, 0.3, 1).
func WithClearColor(c rrect.Color) FrameOption {
	return func(o *frameOptions) { o.clear = c }
}

// WithTextOverlay installs a text overlay drawn after the rectangles.
func WithTextOverlay(f OverlayFactory) FrameOption {
	return func(o *frameOptions) { o.overlay = f }
}

// DefaultClearColor is the clear color used without WithClearColor.
var DefaultClearColor = rrect.RGBA(0.1, 0.2, 0.3, 1)

var errDestroyed = errors.New("gpu: frame controller destroyed")

// FrameController owns the surface, the rect pipeline and the per-frame
// submission. All methods must be called from the goroutine that drives
// the event loop.
type FrameController struct {
	device  hal.Device
	queue   hal.Queue
	surface Surface
	window  Window

	pipeline *RectPipeline
	overlay  TextOverlay
	clear    rrect.Color

	submitted   uint64
	waitTimeout time.Duration

	width, height uint32
	uniform       rrect.WindowUniform
	frames        uint64
	state         FrameState
}

// NewFrameController builds the pipeline and static buffers from the
// scene and configures the surface to the window's current size. Any
// failure is fatal for the caller.
func NewFrameController(cfg FrameConfig, opts ...FrameOption) (*FrameController, error) {
	if cfg.Device == nil || cfg.Queue == nil || cfg.Surface == nil || cfg.Window == nil {
		return nil, errors.New("gpu: incomplete frame config")
	}
	o := frameOptions{clear: DefaultClearColor}
	for _, opt := range opts {
		opt(&o)
	}

	geom, err := rrect.BuildGeometry(cfg.Scene)
	if err != nil {
		return nil, fmt.Errorf("build geometry: %w", err)
	}

	fc := &FrameController{
		device:  cfg.Device,
		queue:   cfg.Queue,
		surface: cfg.Surface,
		window:  cfg.Window,
		clear:   o.clear,

		waitTimeout: gpuWaitTimeout,
	}
	if fc.pipeline, err = NewRectPipeline(fc.device, fc.queue, fc.surface.Format()); err != nil {
		return nil, fmt.Errorf("create rect pipeline: %w", err)
	}
	if err := fc.pipeline.Upload(geom); err != nil {
		fc.release()
		return nil, fmt.Errorf("upload geometry: %w", err)
	}
	if o.overlay != nil {
		if fc.overlay, err = o.overlay(fc.device, fc.queue, fc.surface.Format(), fc.pipeline.UniformBuffer()); err != nil {
			fc.release()
			return nil, fmt.Errorf("create text overlay: %w", err)
		}
	}
	w, h := fc.window.Size()
	if w == 0 || h == 0 {
		fc.release()
		return nil, fmt.Errorf("%w: initial window %dx%d", errZeroSize, w, h)
	}
	if err := fc.surface.Configure(w, h); err != nil {
		fc.release()
		return nil, fmt.Errorf("configure surface: %w", err)
	}
	fc.width, fc.height = w, h
	fc.state = FrameConfigured

	slogger().Info("gpu: frame controller ready",
		"width", w, "height", h, "rects", cfg.Scene.Len(), "text", fc.overlay != nil)
	return fc, nil
}

// RenderFrame updates the window uniform, prepares the text overlay,
// acquires the next surface texture, records one render pass, submits and
// presents. A lost or outdated surface is reconfigured to the stored size
// and the frame is skipped; the returned error still reports it.
func (fc *FrameController) RenderFrame() error {
	if fc.state == FrameUninitialized {
		return errDestroyed
	}
	fc.state = FrameRendering
	defer func() { fc.state = FrameIdle }()

	w, h := fc.window.Size()
	fc.uniform = rrect.NewWindowUniform(w, h, fc.window.ScaleFactor())
	if err := fc.pipeline.WriteUniform(fc.uniform); err != nil {
		return err
	}

	if fc.overlay != nil {
		if err := fc.overlay.Prepare(w, h); err != nil {
			return fmt.Errorf("prepare text: %w", err)
		}
	}

	view, err := fc.surface.Acquire()
	if err != nil {
		if rrect.IsSurfaceRecoverable(err) {
			slogger().Debug("gpu: reconfiguring surface", "width", fc.width, "height", fc.height, "err", err)
			if cerr := fc.configure(fc.width, fc.height); cerr != nil {
				return fmt.Errorf("acquire: %w", errors.Join(err, cerr))
			}
		}
		return fmt.Errorf("acquire: %w", err)
	}

	if err := fc.submit(view); err != nil {
		fc.surface.Discard()
		return err
	}
	// The frame is on the queue: present it even if the wait runs out.
	if err := fc.waitIdle(); err != nil {
		slogger().Warn("gpu: presenting frame still in flight", "err", err)
	}
	if err := fc.surface.Present(); err != nil {
		return fmt.Errorf("present: %w", err)
	}
	if fc.overlay != nil {
		fc.overlay.Trim()
	}
	fc.frames++
	return nil
}

// submit records the frame's render pass and submits it. The submission
// index is stored only once the queue accepted the work.
func (fc *FrameController) submit(view hal.TextureView) error {
	encoder, err := fc.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "frame_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "frame_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: clearValue(fc.clear),
		}},
	})
	fc.pipeline.Record(rp)
	if fc.overlay != nil {
		fc.overlay.Render(rp)
	}
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer fc.device.FreeCommandBuffer(cmdBuf)

	idx, err := fc.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fc.submitted = idx
	return nil
}

// waitIdle blocks until the last accepted submission has completed.
func (fc *FrameController) waitIdle() error {
	if err := waitSubmission(fc.queue, fc.submitted, fc.waitTimeout); err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	return nil
}

// Resize waits for in-flight work, stores the new size and reconfigures
// the surface. A zero dimension is ignored and reports false.
func (fc *FrameController) Resize(width, height uint32) (bool, error) {
	if width == 0 || height == 0 {
		slogger().Debug("gpu: ignoring zero-size resize", "width", width, "height", height)
		return false, nil
	}
	if fc.state == FrameUninitialized {
		return false, errDestroyed
	}
	if err := fc.configure(width, height); err != nil {
		return false, err
	}
	return true, nil
}

func (fc *FrameController) configure(width, height uint32) error {
	if err := fc.waitIdle(); err != nil {
		return err
	}
	if err := fc.surface.Configure(width, height); err != nil {
		return fmt.Errorf("configure surface: %w", err)
	}
	fc.width, fc.height = width, height
	return nil
}

// Size reports the stored surface configuration.
func (fc *FrameController) Size() (uint32, uint32) { return fc.width, fc.height }

// State returns the lifecycle state.
func (fc *FrameController) State() FrameState { return fc.state }

// Uniform returns the window uniform written by the last RenderFrame.
func (fc *FrameController) Uniform() rrect.WindowUniform { return fc.uniform }

// Frames returns the number of frames presented.
func (fc *FrameController) Frames() uint64 { return fc.frames }

// Pipeline returns the rect pipeline.
func (fc *FrameController) Pipeline() *RectPipeline { return fc.pipeline }

// Destroy waits for in-flight work and releases all resources. The
// surface itself belongs to the caller.
func (fc *FrameController) Destroy() {
	if fc.state == FrameUninitialized {
		return
	}
	if err := fc.waitIdle(); err != nil {
		slogger().Warn("gpu: destroy without idle", "err", err)
	}
	fc.release()
	fc.state = FrameUninitialized
}

func (fc *FrameController) release() {
	if d, ok := fc.overlay.(interface{ Destroy() }); ok {
		d.Destroy()
	}
	fc.overlay = nil
	if fc.pipeline != nil {
		fc.pipeline.Destroy()
		fc.pipeline = nil
	}
}

// clearValue converts a straight-alpha linear color to a premultiplied
// clear value.
func clearValue(c rrect.Color) gputypes.Color {
	p := c.Premultiply()
	return gputypes.Color{R: float64(p.R), G: float64(p.G), B: float64(p.B), A: float64(p.A)}
}
