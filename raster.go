package rrect

import (
	"image"

	"github.com/chewxy/math32"
)

// minSoftness keeps the coverage ramp well defined for hard edges.
const minSoftness = 1e-4

// RoundedRectSDF returns the signed distance from p (relative to the
// rectangle center) to a rounded rectangle with the given half extents.
// The radius is clamped to the smaller half extent. Negative is inside.
func RoundedRectSDF(p, half Vec2, radius float32) float32 {
	r := math32.Min(math32.Max(radius, 0), math32.Min(half.X, half.Y))
	q := p.Abs().Sub(half).Add(V2(r, r))
	outside := q.Max(0).Length()
	inside := math32.Min(math32.Max(q.X, q.Y), 0)
	return outside + inside - r
}

// Coverage maps a signed distance to [0, 1] over a band of the given
// softness centered on the edge.
func Coverage(d, softness float32) float32 {
	s := math32.Max(softness, minSoftness)
	return 1 - smoothstep(-s/2, s/2, d)
}

func smoothstep(e0, e1, x float32) float32 {
	t := math32.Min(math32.Max((x-e0)/(e1-e0), 0), 1)
	return t * t * (3 - 2*t)
}

// Shade evaluates the rectangle fragment shader at pixel position p and
// returns a premultiplied color.
func Shade(v Vertex, s StrokeVertex, p Vec2) Color {
	d := RoundedRectSDF(p.Sub(v.RectPosition), v.RectSize.Mul(0.5), v.BorderRadius)
	cov := Coverage(d, v.Softness)

	fill := v.Color.Premultiply()
	fa := fill.A * cov
	out := Color{R: fill.R * cov, G: fill.G * cov, B: fill.B * cov, A: fa}

	if s.Width <= 0 || s.Color.A <= 0 {
		return out
	}
	band := cov * (1 - Coverage(d+s.Width, v.Softness))
	sa := s.Color.A * band
	return Color{
		R: s.Color.R*sa + out.R*(1-sa),
		G: s.Color.G*sa + out.G*(1-sa),
		B: s.Color.B*sa + out.B*(1-sa),
		A: sa + out.A*(1-sa),
	}
}

// Framebuffer is a linear, premultiplied float color target used to
// evaluate scenes on the CPU exactly the way the GPU pipeline composites
// them.
type Framebuffer struct {
	Width, Height int
	Pix           []Color
}

// NewFramebuffer creates a framebuffer cleared to c.
func NewFramebuffer(width, height int, c Color) *Framebuffer {
	fb := &Framebuffer{Width: width, Height: height, Pix: make([]Color, width*height)}
	pc := c.Premultiply()
	for i := range fb.Pix {
		fb.Pix[i] = pc
	}
	return fb
}

// At returns the premultiplied color of pixel (x, y).
func (fb *Framebuffer) At(x, y int) Color { return fb.Pix[y*fb.Width+x] }

// DrawGeometry composites every quad of g in buffer order with
// premultiplied "over" blending. There is no depth test: later quads land
// on top regardless of their z index.
func (fb *Framebuffer) DrawGeometry(g *Geometry) {
	for q := 0; q+3 < len(g.Vertices); q += verticesPerRect {
		fb.drawQuad(g.Vertices[q:q+verticesPerRect], g.Strokes[q])
	}
}

func (fb *Framebuffer) drawQuad(quad []Vertex, s StrokeVertex) {
	minP, maxP := quad[0].Position, quad[0].Position
	for _, v := range quad[1:] {
		minP = V2(math32.Min(minP.X, v.Position.X), math32.Min(minP.Y, v.Position.Y))
		maxP = V2(math32.Max(maxP.X, v.Position.X), math32.Max(maxP.Y, v.Position.Y))
	}

	// Pixel centers inside [min, max), the rasterizer's top-left rule.
	x0 := max(int(math32.Ceil(minP.X-0.5)), 0)
	y0 := max(int(math32.Ceil(minP.Y-0.5)), 0)
	x1 := min(int(math32.Ceil(maxP.X-0.5)), fb.Width)
	y1 := min(int(math32.Ceil(maxP.Y-0.5)), fb.Height)

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			src := Shade(quad[0], s, V2(float32(x)+0.5, float32(y)+0.5))
			i := y*fb.Width + x
			dst := fb.Pix[i]
			k := 1 - src.A
			fb.Pix[i] = Color{
				R: src.R + dst.R*k,
				G: src.G + dst.G*k,
				B: src.B + dst.B*k,
				A: src.A + dst.A*k,
			}
		}
	}
}

// Image converts the framebuffer to an sRGB-encoded, straight-alpha image,
// which is what an sRGB surface would display.
func (fb *Framebuffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			c := fb.At(x, y)
			if c.A > 0 {
				c = Color{R: c.R / c.A, G: c.G / c.A, B: c.B / c.A, A: c.A}
			}
			img.SetNRGBA(x, y, c.NRGBA())
		}
	}
	return img
}

// RenderImage rasterizes a scene on the CPU. It is the reference for the
// GPU pipeline and backs offline snapshots.
func RenderImage(scene Scene, size Size, clear Color) (*image.NRGBA, error) {
	g, err := BuildGeometry(scene)
	if err != nil {
		return nil, err
	}
	fb := NewFramebuffer(int(size.Width), int(size.Height), clear)
	fb.DrawGeometry(g)
	return fb.Image(), nil
}
