package text

import (
	"fmt"
	"math"

	"github.com/gogpu/rrect"
)

// Metrics are the font size and line height of a buffer, in logical
// pixels.
type Metrics struct {
	FontSize   float32
	LineHeight float32
}

// Validate reports an error for non-positive or non-finite metrics.
func (m Metrics) Validate() error {
	if !(m.FontSize > 0) || !(m.LineHeight > 0) ||
		math.IsInf(float64(m.FontSize), 0) || math.IsInf(float64(m.LineHeight), 0) {
		return fmt.Errorf("%w: font size %v, line height %v", ErrInvalidMetrics, m.FontSize, m.LineHeight)
	}
	return nil
}

// Bounds is a clip rectangle in physical pixels. Glyphs are clipped to it
// and lines wrap at its right edge.
type Bounds struct {
	Left, Top, Right, Bottom int32
}

// Unbounded covers any window.
var Unbounded = Bounds{Left: math.MinInt32, Top: math.MinInt32, Right: math.MaxInt32, Bottom: math.MaxInt32}

// Empty reports whether b contains no pixels.
func (b Bounds) Empty() bool { return b.Right <= b.Left || b.Bottom <= b.Top }

// intersect returns the overlap of b and o.
func (b Bounds) intersect(o Bounds) Bounds {
	return Bounds{
		Left:   max(b.Left, o.Left),
		Top:    max(b.Top, o.Top),
		Right:  min(b.Right, o.Right),
		Bottom: min(b.Bottom, o.Bottom),
	}
}

// Buffer is one block of text placed on the overlay. Left and Top are the
// position of the first line's top edge in physical pixels; Scale
// multiplies the metrics, usually by the window scale factor.
type Buffer struct {
	Text    string
	Metrics Metrics
	Left    float32
	Top     float32
	Scale   float32
	Bounds  Bounds
	Color   rrect.Color

	layout    *Layout
	layoutKey layoutKey
}

// layoutKey captures the inputs a cached layout was computed from.
type layoutKey struct {
	text     string
	metrics  Metrics
	scale    float32
	maxWidth float32
}

// NewBuffer returns an unbounded white buffer at the origin with scale 1.
func NewBuffer(text string, m Metrics) *Buffer {
	return &Buffer{
		Text:    text,
		Metrics: m,
		Scale:   1,
		Bounds:  Unbounded,
		Color:   rrect.White,
	}
}

// scale returns Scale, treating zero as 1.
func (b *Buffer) scale() float32 {
	if b.Scale <= 0 {
		return 1
	}
	return b.Scale
}

// maxWidth returns the wrap width: the distance from Left to the right
// edge of Bounds, or zero when unbounded.
func (b *Buffer) maxWidth() float32 {
	if b.Bounds.Right == math.MaxInt32 {
		return 0
	}
	return max(float32(b.Bounds.Right)-b.Left, 1)
}

// layoutFor returns the buffer's line layout, reusing the previous result
// when text, metrics, scale and wrap width are unchanged.
func (b *Buffer) layoutFor(s *shaper) (*Layout, error) {
	if err := b.Metrics.Validate(); err != nil {
		return nil, err
	}
	key := layoutKey{text: b.Text, metrics: b.Metrics, scale: b.scale(), maxWidth: b.maxWidth()}
	if b.layout != nil && b.layoutKey == key {
		return b.layout, nil
	}
	l, err := layoutText(s, key.text, key.metrics.FontSize*key.scale, key.metrics.LineHeight*key.scale, key.maxWidth)
	if err != nil {
		return nil, err
	}
	b.layout, b.layoutKey = l, key
	return l, nil
}
