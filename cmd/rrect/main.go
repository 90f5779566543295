// Command rrect draws the rounded-rectangle scene and its text overlay,
// either in a window or into a PNG snapshot.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gogpu/rrect"
	"github.com/gogpu/rrect/config"
	"github.com/gogpu/rrect/internal/gpu"
	_ "github.com/gogpu/wgpu/hal/noop"   // Register the noop backend for headless snapshots
	_ "github.com/gogpu/wgpu/hal/vulkan" // Register the Vulkan backend for OpenDevice
)

func main() {
	var (
		configPath = flag.String("config", "", "TOML configuration file")
		verbose    = flag.Bool("v", false, "debug logging")
		snapshot   = flag.String("snapshot", "", "render one frame to this PNG file and exit")
		software   = flag.Bool("software", false, "render the snapshot on the CPU")
		width      = flag.Uint("width", 0, "window width, overrides the configuration")
		height     = flag.Uint("height", 0, "window height, overrides the configuration")
		dumpConfig = flag.Bool("dump-config", false, "print the effective configuration and exit")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	rrect.SetLogger(logger)

	cfg, err := loadConfig(*configPath, *width, *height)
	if err != nil {
		logger.Error("load configuration", "err", err)
		os.Exit(2)
	}
	if *dumpConfig {
		if err := cfg.Encode(os.Stdout); err != nil {
			logger.Error("encode configuration", "err", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case *snapshot != "" && *software:
		err = softwareSnapshot(cfg, *snapshot)
	case *snapshot != "":
		err = gpuSnapshot(ctx, cfg, *snapshot)
	default:
		err = runWindow(cfg)
	}
	if err != nil {
		logger.Error("rrect failed", "err", err)
		os.Exit(1)
	}
}

func loadConfig(path string, width, height uint) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if width > 0 {
		cfg.Window.Width = uint32(width) //nolint:gosec // flag value, validated below
	}
	if height > 0 {
		cfg.Window.Height = uint32(height) //nolint:gosec // flag value, validated below
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// frameOptions turns the configuration into frame controller options.
// The text overlay is only installed when there is text to draw.
func frameOptions(cfg *config.Config) ([]gpu.FrameOption, error) {
	clear, err := cfg.ClearColor()
	if err != nil {
		return nil, err
	}
	opts := []gpu.FrameOption{gpu.WithClearColor(clear)}

	overlay, err := newOverlay(cfg)
	if err != nil {
		return nil, err
	}
	if overlay != nil {
		opts = append(opts, gpu.WithTextOverlay(gpu.TextOverlayFactory(overlay)))
	}
	return opts, nil
}

// fixedWindow is a Window of constant size.
type fixedWindow struct {
	size  rrect.Size
	scale float64
}

func (w fixedWindow) Size() (uint32, uint32) { return w.size.Width, w.size.Height }
func (w fixedWindow) ScaleFactor() float64   { return w.scale }

func windowSize(cfg *config.Config) rrect.Size {
	return rrect.Size{Width: cfg.Window.Width, Height: cfg.Window.Height}
}

func errorf(format string, args ...any) error { return fmt.Errorf("rrect: "+format, args...) }
