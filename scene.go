package rrect

import (
	"fmt"

	"github.com/chewxy/math32"
)

// PaintKind identifies which parts of a rectangle are painted.
type PaintKind uint8

const (
	// PaintNone is the zero value. A rectangle with no paint is rejected
	// by BuildGeometry.
	PaintNone PaintKind = iota
	PaintFillOnly
	PaintStrokeOnly
	PaintFillAndStroke
)

// String returns the paint kind name.
func (k PaintKind) String() string {
	switch k {
	case PaintNone:
		return "None"
	case PaintFillOnly:
		return "FillOnly"
	case PaintStrokeOnly:
		return "StrokeOnly"
	case PaintFillAndStroke:
		return "FillAndStroke"
	default:
		return fmt.Sprintf("PaintKind(%d)", k)
	}
}

// Stroke is an inner border band. Only the RGB part of Color is used;
// strokes are always opaque.
type Stroke struct {
	Color Color
	Width float32
}

// Paint is a tagged fill/stroke variant. Construct it with FillOnly,
// StrokeOnly or FillAndStroke.
type Paint struct {
	kind   PaintKind
	fill   Color
	stroke Stroke
}

// FillOnly paints the rectangle interior with c.
func FillOnly(c Color) Paint {
	return Paint{kind: PaintFillOnly, fill: c}
}

// StrokeOnly paints only an inner border band.
func StrokeOnly(s Stroke) Paint {
	return Paint{kind: PaintStrokeOnly, stroke: s}
}

// FillAndStroke paints the interior and composites the stroke band over it.
func FillAndStroke(c Color, s Stroke) Paint {
	return Paint{kind: PaintFillAndStroke, fill: c, stroke: s}
}

// Kind returns the variant tag.
func (p Paint) Kind() PaintKind { return p.kind }

// Fill returns the fill color and whether the paint has a fill.
func (p Paint) Fill() (Color, bool) {
	if p.kind == PaintFillOnly || p.kind == PaintFillAndStroke {
		return p.fill, true
	}
	return Color{}, false
}

// Stroke returns the stroke and whether the paint has one.
func (p Paint) Stroke() (Stroke, bool) {
	if p.kind == PaintStrokeOnly || p.kind == PaintFillAndStroke {
		return p.stroke, true
	}
	return Stroke{}, false
}

// Rect is one rounded rectangle of the scene.
//
// Position is the rectangle CENTER in window pixels, not its top-left
// corner. ZIndex is carried into the vertex data but does not affect draw
// order: rectangles composite in scene order.
type Rect struct {
	Position     Vec2
	Size         Vec2
	BorderRadius float32
	Paint        Paint
	ZIndex       float32
	Softness     float32
}

// Validate checks the rectangle's parameters.
func (r Rect) Validate() error {
	if r.Paint.kind == PaintNone {
		return ErrMissingPaint
	}
	if r.Paint.kind > PaintFillAndStroke {
		return fmt.Errorf("%w: unknown paint kind %d", ErrInvalidRect, r.Paint.kind)
	}
	if !r.Position.IsFinite() || !r.Size.IsFinite() {
		return fmt.Errorf("%w: non-finite position or size", ErrInvalidRect)
	}
	if r.Size.X < 0 || r.Size.Y < 0 {
		return fmt.Errorf("%w: negative size %vx%v", ErrInvalidRect, r.Size.X, r.Size.Y)
	}
	if !nonNegative(r.BorderRadius) || !nonNegative(r.Softness) {
		return fmt.Errorf("%w: border radius and softness must be >= 0", ErrInvalidRect)
	}
	if math32.IsNaN(r.ZIndex) {
		return fmt.Errorf("%w: z index is NaN", ErrInvalidRect)
	}
	if c, ok := r.Paint.Fill(); ok && !c.Valid() {
		return fmt.Errorf("%w: fill color %+v out of range", ErrInvalidRect, c)
	}
	if s, ok := r.Paint.Stroke(); ok {
		if !s.Color.Valid() {
			return fmt.Errorf("%w: stroke color %+v out of range", ErrInvalidRect, s.Color)
		}
		if !nonNegative(s.Width) {
			return fmt.Errorf("%w: stroke width must be >= 0", ErrInvalidRect)
		}
	}
	return nil
}

func nonNegative(v float32) bool {
	return v >= 0 && !math32.IsInf(v, 1)
}

// Scene is an immutable ordered list of rectangles.
// The zero value is an empty scene.
type Scene struct {
	rects []Rect
}

// NewScene creates a scene from rects. The slice is copied.
func NewScene(rects ...Rect) Scene {
	return Scene{rects: append([]Rect(nil), rects...)}
}

// Len returns the number of rectangles.
func (s Scene) Len() int { return len(s.rects) }

// At returns the i-th rectangle.
func (s Scene) At(i int) Rect { return s.rects[i] }

// Rects returns a copy of the rectangles in draw order.
func (s Scene) Rects() []Rect {
	return append([]Rect(nil), s.rects...)
}

// DefaultScene returns the built-in two-rectangle scene: a translucent
// black shadow and an opaque red rectangle offset two pixels up-left.
// The red rectangle has the lower z index but is drawn on top.
func DefaultScene() Scene {
	return NewScene(
		Rect{
			Position:     V2(200, 200),
			Size:         V2(100, 100),
			BorderRadius: 30,
			Paint:        FillOnly(RGBA(0, 0, 0, 0.7)),
			ZIndex:       0.5,
			Softness:     5,
		},
		Rect{
			Position:     V2(198, 198),
			Size:         V2(100, 100),
			BorderRadius: 30,
			Paint:        FillOnly(RGBA(1, 0, 0, 1)),
			ZIndex:       0,
			Softness:     1,
		},
	)
}
