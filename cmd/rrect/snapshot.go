package main

import (
	"context"
	"image"
	"image/png"
	"os"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rrect"
	"github.com/gogpu/rrect/config"
	"github.com/gogpu/rrect/internal/gpu"
)

// nopExecutor ignores reconfigure and redraw requests; a snapshot has a
// fixed size and renders exactly the frames it is sent.
type nopExecutor struct{}

func (nopExecutor) Reconfigure(rrect.Size) {}
func (nopExecutor) RequestRedraw()         {}

// gpuSnapshot opens a standalone device, renders one frame into an
// offscreen surface and writes it to path.
func gpuSnapshot(ctx context.Context, cfg *config.Config, path string) error {
	power, err := cfg.Power()
	if err != nil {
		return err
	}
	dev, err := gpu.OpenDevice(ctx, gpu.DeviceOptions{Backend: cfg.Render.Backend, Power: power})
	if err != nil {
		return err
	}
	defer dev.Close()

	scene, err := cfg.Scene()
	if err != nil {
		return err
	}
	opts, err := frameOptions(cfg)
	if err != nil {
		return err
	}

	surface := gpu.NewOffscreenSurface(dev.Device, dev.Queue, gputypes.TextureFormatBGRA8UnormSrgb)
	defer surface.Destroy()

	fc, err := gpu.NewFrameController(gpu.FrameConfig{
		Device:  dev.Device,
		Queue:   dev.Queue,
		Surface: surface,
		Window:  fixedWindow{size: windowSize(cfg), scale: 1},
		Scene:   scene,
	}, opts...)
	if err != nil {
		return err
	}
	defer fc.Destroy()

	if err := renderOnce(ctx, fc); err != nil {
		return err
	}
	return writePNG(path, surface.Image())
}

// renderOnce drives a single redraw followed by a close through the
// driver, the same event path the window host uses.
func renderOnce(ctx context.Context, r rrect.Renderer) error {
	events := make(chan rrect.Event, 2)
	events <- rrect.RedrawRequested()
	events <- rrect.CloseRequested()
	close(events)

	d := rrect.NewDriver(r)
	if err := d.Run(ctx, events, nopExecutor{}); err != nil {
		return err
	}
	if rendered, _ := d.Stats(); rendered == 0 {
		return errorf("snapshot frame was skipped")
	}
	return nil
}

// softwareSnapshot renders the scene with the CPU reference rasterizer.
// Text is not drawn.
func softwareSnapshot(cfg *config.Config, path string) error {
	scene, err := cfg.Scene()
	if err != nil {
		return err
	}
	clear, err := cfg.ClearColor()
	if err != nil {
		return err
	}
	img, err := rrect.RenderImage(scene, windowSize(cfg), clear)
	if err != nil {
		return err
	}
	return writePNG(path, img)
}

func writePNG(path string, img *image.NRGBA) error {
	if img == nil {
		return errorf("no image to write")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	rrect.Logger().Info("snapshot written", "path", path, "size", img.Bounds().Size())
	return nil
}
