package main

import (
	"github.com/gogpu/gogpu"
	"github.com/gogpu/gogpu/gpu/types"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/rrect"
	"github.com/gogpu/rrect/config"
	"github.com/gogpu/rrect/internal/gpu"
	"github.com/gogpu/wgpu"
	"github.com/gogpu/wgpu/hal"
)

// halView is the part of *wgpu.TextureView the host surface draws into.
type halView interface {
	HalTextureView() hal.TextureView
}

// hostSurface adapts the gogpu window surface to gpu.Surface. The host
// owns the swapchain: it acquires the texture before OnDraw and presents
// after it returns, so Configure and Present only track state.
type hostSurface struct {
	format gputypes.TextureFormat
	view   halView
	size   rrect.Size
}

// setView stores the view of the current draw call. A nil view clears it.
func (s *hostSurface) setView(v *wgpu.TextureView) {
	if v == nil {
		s.view = nil
		return
	}
	s.view = v
}

func (s *hostSurface) Format() gputypes.TextureFormat { return s.format }

func (s *hostSurface) Configure(width, height uint32) error {
	s.size = rrect.Size{Width: width, Height: height}
	return nil
}

// Acquire returns the view the host handed to the current OnDraw call.
// Outside of a draw callback the surface is outdated.
func (s *hostSurface) Acquire() (hal.TextureView, error) {
	if s.view == nil {
		return nil, rrect.ErrSurfaceOutdated
	}
	view := s.view.HalTextureView()
	if view == nil {
		return nil, rrect.ErrSurfaceOutdated
	}
	return view, nil
}

func (s *hostSurface) Present() error { return nil }
func (s *hostSurface) Discard()       {}

// surfaceFormat prefers the host's swapchain format and falls back to
// BGRA8 sRGB when the host does not report one.
func surfaceFormat(p gpucontext.DeviceProvider) gputypes.TextureFormat {
	if p != nil {
		if f := p.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
			return f
		}
	}
	return gputypes.TextureFormatBGRA8UnormSrgb
}

// liveWindow reports the physical surface size and scale factor seen by
// the current draw callback.
type liveWindow struct {
	size  rrect.Size
	scale float64
}

func (w *liveWindow) Size() (uint32, uint32) { return w.size.Width, w.size.Height }

func (w *liveWindow) ScaleFactor() float64 {
	if w.scale <= 0 {
		return 1
	}
	return w.scale
}

// changeEvent returns the event announcing a new surface size or scale
// factor, if either changed since the last applied configuration.
func changeEvent(last, size rrect.Size, lastScale, scale float64) (rrect.Event, bool) {
	switch {
	case scale != lastScale:
		return rrect.ScaleFactorChanged(scale, size), true
	case size != last:
		return rrect.Resized(size.Width, size.Height), true
	default:
		return rrect.Event{}, false
	}
}

// appConfig builds the gogpu window configuration. The window host
// renders through the host's own device, so only Vulkan is accepted.
func appConfig(cfg *config.Config) (gogpu.Config, error) {
	variant, err := gpu.BackendVariant(cfg.Render.Backend)
	if err != nil {
		return gogpu.Config{}, err
	}
	if variant != gputypes.BackendVulkan {
		return gogpu.Config{}, errorf("backend %q cannot open a window, use -snapshot", cfg.Render.Backend)
	}
	power, err := cfg.Power()
	if err != nil {
		return gogpu.Config{}, err
	}
	return gogpu.DefaultConfig().
		WithTitle(cfg.Window.Title).
		WithSize(int(cfg.Window.Width), int(cfg.Window.Height)).
		WithGraphicsAPI(types.GraphicsAPIVulkan).
		WithPowerPreference(power.Preference()), nil
}

// host runs the frame controller inside gogpu's draw loop. Every callback
// is turned into driver events; the host executes the returned actions.
type host struct {
	app    *gogpu.App
	cfg    *config.Config
	driver *rrect.Driver

	fc        *gpu.FrameController
	surface   *hostSurface
	window    liveWindow
	last      rrect.Size
	lastScale float64
	err       error
}

func runWindow(cfg *config.Config) error {
	appCfg, err := appConfig(cfg)
	if err != nil {
		return err
	}
	app := gogpu.NewApp(appCfg)

	h := &host{app: app, cfg: cfg}
	app.OnDraw(h.draw)
	app.OnClose(h.close)
	if err := app.Run(); err != nil {
		return err
	}
	return h.err
}

func (h *host) draw(dc *gogpu.Context) {
	w, ht := dc.SurfaceSize()
	if w == 0 || ht == 0 {
		return
	}
	size := rrect.Size{Width: w, Height: ht}
	scale := dc.ScaleFactor()
	h.window.size, h.window.scale = size, scale

	if h.fc == nil {
		if err := h.start(size, scale); err != nil {
			h.fail(err)
			return
		}
	}

	h.surface.setView(dc.SurfaceView())
	defer h.surface.setView(nil)

	if ev, ok := changeEvent(h.last, size, h.lastScale, scale); ok {
		h.step(ev)
		h.lastScale = scale
	}
	h.step(rrect.RedrawRequested())
	h.step(rrect.MainEventsCleared())
}

// start creates the frame controller on the host's shared device.
func (h *host) start(size rrect.Size, scale float64) error {
	provider := h.app.GPUContextProvider()
	if provider == nil {
		return errorf("host has no GPU context")
	}
	dev, err := gpu.DeviceFromProvider(provider)
	if err != nil {
		return err
	}
	scene, err := h.cfg.Scene()
	if err != nil {
		return err
	}
	opts, err := frameOptions(h.cfg)
	if err != nil {
		return err
	}

	h.surface = &hostSurface{format: surfaceFormat(provider)}
	fc, err := gpu.NewFrameController(gpu.FrameConfig{
		Device:  dev.Device,
		Queue:   dev.Queue,
		Surface: h.surface,
		Window:  &h.window,
		Scene:   scene,
	}, opts...)
	if err != nil {
		return err
	}
	h.fc = fc
	h.driver = rrect.NewDriver(fc)
	h.last, h.lastScale = size, scale
	return nil
}

func (h *host) step(ev rrect.Event) {
	a := h.driver.Step(ev)
	switch a.Kind {
	case rrect.ActionExit:
		h.fail(h.driver.Err())
	case rrect.ActionReconfigure:
		h.Reconfigure(a.Size)
	case rrect.ActionRequestRedraw:
		h.RequestRedraw()
	}
}

// Reconfigure resizes the frame controller. The stored size only changes
// when the resize was applied.
func (h *host) Reconfigure(size rrect.Size) {
	ok, err := h.fc.Resize(size.Width, size.Height)
	if err != nil {
		rrect.Logger().Warn("resize failed", "size", size, "err", err)
		return
	}
	if ok {
		h.last = size
	}
}

// RequestRedraw is a no-op: gogpu renders continuously by default.
func (h *host) RequestRedraw() {}

func (h *host) fail(err error) {
	if err != nil && h.err == nil {
		h.err = err
	}
	h.app.Quit()
}

func (h *host) close() {
	if h.driver != nil {
		h.driver.Step(rrect.CloseRequested())
		rendered, skipped := h.driver.Stats()
		rrect.Logger().Info("window closed", "rendered", rendered, "skipped", skipped)
	}
	if h.fc != nil {
		h.fc.Destroy()
		h.fc = nil
	}
}

var (
	_ halView        = (*wgpu.TextureView)(nil)
	_ gpu.Surface    = (*hostSurface)(nil)
	_ gpu.Window     = (*liveWindow)(nil)
	_ rrect.Executor = (*host)(nil)
)
