// Package config loads the rrect scene, window and text settings from TOML.
//
// Colors are either arrays of 3 or 4 linear components in [0, 1] or hex
// strings in display (sRGB) space:
//
//	fill = [0, 0, 0, 0.7]
//	fill = "#000000b3"
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gogpu/rrect"
	"github.com/gogpu/rrect/internal/gpu"
	"github.com/gogpu/rrect/text"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid")

// Config is the decoded configuration file.
type Config struct {
	Window WindowConfig `toml:"window"`
	Render RenderConfig `toml:"render"`
	Rects  []RectConfig `toml:"rect"`
	Texts  []TextConfig `toml:"text"`
}

// WindowConfig describes the host window.
type WindowConfig struct {
	Title  string `toml:"title"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
}

// RenderConfig selects the clear color and device. Backend is "vulkan"
// or "noop"; the noop backend only serves snapshots.
type RenderConfig struct {
	ClearColor      any    `toml:"clear_color,omitempty"`
	Backend         string `toml:"backend"`
	PowerPreference string `toml:"power_preference"`
}

// RectConfig is one rectangle. Position is the center in window pixels.
// At least one of Fill and Stroke must be set.
type RectConfig struct {
	Position     []float32     `toml:"position"`
	Size         []float32     `toml:"size"`
	BorderRadius float32       `toml:"border_radius"`
	Fill         any           `toml:"fill,omitempty"`
	Stroke       *StrokeConfig `toml:"stroke,omitempty"`
	ZIndex       float32       `toml:"z_index"`
	Softness     float32       `toml:"softness"`
}

// StrokeConfig is an inner border band.
type StrokeConfig struct {
	Color any     `toml:"color"`
	Width float32 `toml:"width"`
}

// TextConfig is one text buffer of the overlay.
type TextConfig struct {
	Content    string  `toml:"content"`
	FontSize   float32 `toml:"font_size"`
	LineHeight float32 `toml:"line_height"`
	Left       float32 `toml:"left"`
	Top        float32 `toml:"top"`
	Scale      float32 `toml:"scale,omitempty"`
	Bounds     []int32 `toml:"bounds,omitempty"`
	Color      any     `toml:"color,omitempty"`
}

// Default returns the built-in configuration: an 800x600 window, the
// default two-rectangle scene and one line of sample text.
func Default() *Config {
	return &Config{
		Window: WindowConfig{Title: "rrect", Width: 800, Height: 600},
		Render: RenderConfig{
			ClearColor:      []float32{0.1, 0.2, 0.3, 1},
			Backend:         "vulkan",
			PowerPreference: "low",
		},
		Rects: []RectConfig{
			{
				Position:     []float32{200, 200},
				Size:         []float32{100, 100},
				BorderRadius: 30,
				Fill:         []float32{0, 0, 0, 0.7},
				ZIndex:       0.5,
				Softness:     5,
			},
			{
				Position:     []float32{198, 198},
				Size:         []float32{100, 100},
				BorderRadius: 30,
				Fill:         []float32{1, 0, 0, 1},
				ZIndex:       0,
				Softness:     1,
			},
		},
		Texts: []TextConfig{{
			Content:    "This is sample text",
			FontSize:   30,
			LineHeight: 42,
			Left:       10,
			Top:        10,
			Scale:      1,
			Bounds:     []int32{0, 0, 400, 100},
			Color:      "#ffffff",
		}},
	}
}

// Load reads and validates the file at path. Keys the configuration does
// not know are an error.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads TOML from r. Zero values and missing sections take their
// defaults; a file without any [[rect]] or [[text]] gets the default
// scene and text.
func Decode(r io.Reader) (*Config, error) {
	var cfg Config
	err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg)
	var sm *toml.StrictMissingError
	if errors.As(err, &sm) {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, sm.String())
	}
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Window.Title == "" {
		c.Window.Title = def.Window.Title
	}
	if c.Window.Width == 0 {
		c.Window.Width = def.Window.Width
	}
	if c.Window.Height == 0 {
		c.Window.Height = def.Window.Height
	}
	if c.Render.Backend == "" {
		c.Render.Backend = def.Render.Backend
	}
	if c.Render.PowerPreference == "" {
		c.Render.PowerPreference = def.Render.PowerPreference
	}
	if c.Rects == nil && c.Texts == nil {
		c.Rects, c.Texts = def.Rects, def.Texts
	}
}

// Encode writes cfg as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate checks every field and the scene the rectangles describe.
func (c *Config) Validate() error {
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	if _, err := c.ClearColor(); err != nil {
		return err
	}
	if _, err := gpu.BackendVariant(c.Render.Backend); err != nil {
		return fmt.Errorf("%w: render.backend: %w", ErrInvalid, err)
	}
	if _, err := c.Power(); err != nil {
		return err
	}
	if _, err := c.Scene(); err != nil {
		return err
	}
	_, err := c.TextBuffers()
	return err
}

// ClearColor returns the render clear color, or the default when unset.
func (c *Config) ClearColor() (rrect.Color, error) {
	if c.Render.ClearColor == nil {
		return gpu.DefaultClearColor, nil
	}
	col, err := parseColor(c.Render.ClearColor)
	if err != nil {
		return rrect.Color{}, fmt.Errorf("render.clear_color: %w", err)
	}
	return col, nil
}

// Power maps power_preference to the adapter preference. Empty means low.
func (c *Config) Power() (gpu.PowerPreference, error) {
	switch c.Render.PowerPreference {
	case "", "low":
		return gpu.PowerLowPower, nil
	case "high":
		return gpu.PowerHighPerformance, nil
	default:
		return 0, fmt.Errorf("%w: power_preference %q, want \"low\" or \"high\"", ErrInvalid, c.Render.PowerPreference)
	}
}

// Scene converts the rectangles to a validated scene in file order.
func (c *Config) Scene() (rrect.Scene, error) {
	rects := make([]rrect.Rect, 0, len(c.Rects))
	for i, rc := range c.Rects {
		r, err := rc.rect()
		if err != nil {
			return rrect.Scene{}, fmt.Errorf("rect %d: %w", i, err)
		}
		if err := r.Validate(); err != nil {
			return rrect.Scene{}, fmt.Errorf("rect %d: %w", i, err)
		}
		rects = append(rects, r)
	}
	return rrect.NewScene(rects...), nil
}

func (rc RectConfig) rect() (rrect.Rect, error) {
	pos, err := vec2("position", rc.Position)
	if err != nil {
		return rrect.Rect{}, err
	}
	size, err := vec2("size", rc.Size)
	if err != nil {
		return rrect.Rect{}, err
	}

	var paint rrect.Paint
	switch {
	case rc.Fill != nil && rc.Stroke != nil:
		fill, stroke, err := rc.fillAndStroke()
		if err != nil {
			return rrect.Rect{}, err
		}
		paint = rrect.FillAndStroke(fill, stroke)
	case rc.Fill != nil:
		fill, err := parseColor(rc.Fill)
		if err != nil {
			return rrect.Rect{}, fmt.Errorf("fill: %w", err)
		}
		paint = rrect.FillOnly(fill)
	case rc.Stroke != nil:
		stroke, err := rc.Stroke.stroke()
		if err != nil {
			return rrect.Rect{}, err
		}
		paint = rrect.StrokeOnly(stroke)
	}

	return rrect.Rect{
		Position:     pos,
		Size:         size,
		BorderRadius: rc.BorderRadius,
		Paint:        paint,
		ZIndex:       rc.ZIndex,
		Softness:     rc.Softness,
	}, nil
}

func (rc RectConfig) fillAndStroke() (rrect.Color, rrect.Stroke, error) {
	fill, err := parseColor(rc.Fill)
	if err != nil {
		return rrect.Color{}, rrect.Stroke{}, fmt.Errorf("fill: %w", err)
	}
	stroke, err := rc.Stroke.stroke()
	return fill, stroke, err
}

func (sc *StrokeConfig) stroke() (rrect.Stroke, error) {
	col, err := parseColor(sc.Color)
	if err != nil {
		return rrect.Stroke{}, fmt.Errorf("stroke.color: %w", err)
	}
	return rrect.Stroke{Color: col, Width: sc.Width}, nil
}

// TextBuffers converts the text sections to overlay buffers.
func (c *Config) TextBuffers() ([]*text.Buffer, error) {
	out := make([]*text.Buffer, 0, len(c.Texts))
	for i, tc := range c.Texts {
		b, err := tc.buffer()
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		out = append(out, b)
	}
	return out, nil
}

func (tc TextConfig) buffer() (*text.Buffer, error) {
	m := text.Metrics{FontSize: tc.FontSize, LineHeight: tc.LineHeight}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	b := text.NewBuffer(tc.Content, m)
	b.Left, b.Top = tc.Left, tc.Top
	if tc.Scale < 0 {
		return nil, fmt.Errorf("%w: negative scale %v", ErrInvalid, tc.Scale)
	}
	if tc.Scale > 0 {
		b.Scale = tc.Scale
	}
	switch len(tc.Bounds) {
	case 0:
	case 4:
		b.Bounds = text.Bounds{Left: tc.Bounds[0], Top: tc.Bounds[1], Right: tc.Bounds[2], Bottom: tc.Bounds[3]}
	default:
		return nil, fmt.Errorf("%w: bounds has %d values, want 4", ErrInvalid, len(tc.Bounds))
	}
	if tc.Color != nil {
		col, err := parseColor(tc.Color)
		if err != nil {
			return nil, fmt.Errorf("color: %w", err)
		}
		b.Color = col
	}
	return b, nil
}

func vec2(name string, v []float32) (rrect.Vec2, error) {
	if len(v) != 2 {
		return rrect.Vec2{}, fmt.Errorf("%w: %s has %d values, want 2", ErrInvalid, name, len(v))
	}
	return rrect.V2(v[0], v[1]), nil
}
