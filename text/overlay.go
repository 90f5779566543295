package text

import (
	"math"

	"github.com/gogpu/rrect"
)

// Quad is one glyph rectangle in physical pixels with its atlas texture
// coordinates and straight-alpha linear color.
type Quad struct {
	X0, Y0, X1, Y1 float32
	U0, V0, U1, V1 float32
	Color          rrect.Color
}

// Overlay lays out a set of buffers and keeps their glyphs in one atlas.
// It is used from the render goroutine only.
type Overlay struct {
	shaper  *shaper
	atlas   *Atlas
	buffers []*Buffer
	quads   []Quad
	pending []pendingQuad
}

// pendingQuad is a quad whose texture coordinates are resolved after all
// glyphs of a frame are in the atlas.
type pendingQuad struct {
	entry *atlasEntry
	x, y  float32
	clip  Bounds
	color rrect.Color
}

// OverlayOption configures an Overlay.
type OverlayOption func(*Overlay)

// WithAtlasSize sets the initial and maximum atlas side length in texels.
func WithAtlasSize(size, maxSize int) OverlayOption {
	return func(o *Overlay) { o.atlas = NewAtlas(size, maxSize) }
}

// NewOverlay creates an overlay that renders with face.
func NewOverlay(face *Face, opts ...OverlayOption) *Overlay {
	o := &Overlay{shaper: newShaper(face)}
	for _, opt := range opts {
		opt(o)
	}
	if o.atlas == nil {
		o.atlas = NewAtlas(DefaultAtlasSize, DefaultAtlasMaxSize)
	}
	return o
}

// Add appends a buffer. Buffers are drawn in the order they were added.
func (o *Overlay) Add(b *Buffer) { o.buffers = append(o.buffers, b) }

// Buffers returns the overlay's buffers.
func (o *Overlay) Buffers() []*Buffer { return o.buffers }

// Atlas returns the glyph atlas.
func (o *Overlay) Atlas() *Atlas { return o.atlas }

// Prepare lays out every buffer, rasterizes glyphs missing from the atlas
// and returns glyph quads clipped to each buffer's bounds and the
// width x height viewport. The returned slice is reused by the next call.
func (o *Overlay) Prepare(width, height uint32) ([]Quad, error) {
	viewport := Bounds{Right: clampInt32(width), Bottom: clampInt32(height)}
	o.pending = o.pending[:0]

	for _, b := range o.buffers {
		clip := b.Bounds.intersect(viewport)
		if clip.Empty() || b.Text == "" {
			continue
		}
		l, err := b.layoutFor(o.shaper)
		if err != nil {
			return nil, err
		}
		for _, line := range l.Lines {
			for _, g := range line.Glyphs {
				e, err := o.glyph(g.key, l.Size)
				if err != nil {
					return nil, err
				}
				if e.w == 0 || e.h == 0 {
					continue
				}
				o.pending = append(o.pending, pendingQuad{
					entry: e,
					x:     float32(math.Floor(float64(b.Left+g.X))) + float32(e.left),
					y:     float32(math.Floor(float64(b.Top+g.Y))) + float32(e.top),
					clip:  clip,
					color: b.Color,
				})
			}
		}
	}

	o.quads = o.quads[:0]
	inv := 1 / float32(o.atlas.Size())
	for _, p := range o.pending {
		q := Quad{
			X0: p.x, Y0: p.y,
			X1: p.x + float32(p.entry.w), Y1: p.y + float32(p.entry.h),
			U0: float32(p.entry.x) * inv, V0: float32(p.entry.y) * inv,
			U1: float32(p.entry.x+p.entry.w) * inv, V1: float32(p.entry.y+p.entry.h) * inv,
			Color: p.color,
		}
		if clipQuad(&q, p.clip) {
			o.quads = append(o.quads, q)
		}
	}
	return o.quads, nil
}

// glyph returns the atlas entry for key, rasterizing it on first use.
func (o *Overlay) glyph(key glyphKey, size float32) (*atlasEntry, error) {
	if e, ok := o.atlas.lookup(key); ok {
		return e, nil
	}
	bm, err := o.shaper.face.rasterize(key.gid, size)
	if err != nil {
		return nil, err
	}
	return o.atlas.insert(key, bm)
}

// Trim evicts atlas glyphs not used since the previous Trim.
func (o *Overlay) Trim() int { return o.atlas.Trim() }

// clipQuad trims q to c, adjusting texture coordinates proportionally.
// It reports false when nothing remains.
func clipQuad(q *Quad, c Bounds) bool {
	l, t, r, b := float32(c.Left), float32(c.Top), float32(c.Right), float32(c.Bottom)
	if q.X1 <= l || q.X0 >= r || q.Y1 <= t || q.Y0 >= b {
		return false
	}
	du := (q.U1 - q.U0) / (q.X1 - q.X0)
	dv := (q.V1 - q.V0) / (q.Y1 - q.Y0)
	if q.X0 < l {
		q.U0 += (l - q.X0) * du
		q.X0 = l
	}
	if q.X1 > r {
		q.U1 -= (q.X1 - r) * du
		q.X1 = r
	}
	if q.Y0 < t {
		q.V0 += (t - q.Y0) * dv
		q.Y0 = t
	}
	if q.Y1 > b {
		q.V1 -= (q.Y1 - b) * dv
		q.Y1 = b
	}
	return true
}

func clampInt32(v uint32) int32 {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(v)
}
