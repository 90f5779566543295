package text

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	gtfont "github.com/go-text/typesetting/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// glyphKey identifies one rasterized glyph: a glyph of the overlay's face
// at one pixel size.
type glyphKey struct {
	gid  gtfont.GID
	size fixed.Int26_6
}

// glyphBitmap is a coverage mask for one glyph. Left and Top give the
// offset of the mask's top-left corner from the pen position on the
// baseline, in pixels with y growing down.
type glyphBitmap struct {
	mask      []byte
	w, h      int
	left, top int
}

// rasterize renders a glyph outline at size pixels per em. Glyphs without
// an outline (spaces) produce an empty bitmap.
func (f *Face) rasterize(gid gtfont.GID, size float32) (glyphBitmap, error) {
	segments, err := f.outline.LoadGlyph(&f.buf, sfnt.GlyphIndex(gid), toFixed(size), nil) //nolint:gosec // glyph ids of TrueType fonts fit in 16 bits
	if err != nil {
		return glyphBitmap{}, fmt.Errorf("text: load glyph %d: %w", gid, err)
	}
	if len(segments) == 0 {
		return glyphBitmap{}, nil
	}

	minX, minY := fixed.Int26_6(math.MaxInt32), fixed.Int26_6(math.MaxInt32)
	maxX, maxY := fixed.Int26_6(math.MinInt32), fixed.Int26_6(math.MinInt32)
	for _, seg := range segments {
		for _, p := range seg.Args[:segmentArgs(seg.Op)] {
			minX, maxX = min(minX, p.X), max(maxX, p.X)
			minY, maxY = min(minY, p.Y), max(maxY, p.Y)
		}
	}
	left, top := minX.Floor(), minY.Floor()
	w, h := maxX.Ceil()-left, maxY.Ceil()-top
	if w <= 0 || h <= 0 {
		return glyphBitmap{}, nil
	}

	ox, oy := float32(-left), float32(-top)
	pt := func(p fixed.Point26_6) (float32, float32) {
		return fromFixed(p.X) + ox, fromFixed(p.Y) + oy
	}

	r := vector.NewRasterizer(w, h)
	r.DrawOp = draw.Src
	open := false
	for _, seg := range segments {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			if open {
				r.ClosePath()
			}
			r.MoveTo(pt(seg.Args[0]))
			open = true
		case sfnt.SegmentOpLineTo:
			r.LineTo(pt(seg.Args[0]))
		case sfnt.SegmentOpQuadTo:
			bx, by := pt(seg.Args[0])
			cx, cy := pt(seg.Args[1])
			r.QuadTo(bx, by, cx, cy)
		case sfnt.SegmentOpCubeTo:
			bx, by := pt(seg.Args[0])
			cx, cy := pt(seg.Args[1])
			dx, dy := pt(seg.Args[2])
			r.CubeTo(bx, by, cx, cy, dx, dy)
		}
	}
	if open {
		r.ClosePath()
	}

	dst := image.NewAlpha(image.Rect(0, 0, w, h))
	r.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
	return glyphBitmap{mask: dst.Pix, w: w, h: h, left: left, top: top}, nil
}

// segmentArgs returns how many of a segment's points are meaningful.
func segmentArgs(op sfnt.SegmentOp) int {
	switch op {
	case sfnt.SegmentOpQuadTo:
		return 2
	case sfnt.SegmentOpCubeTo:
		return 3
	default:
		return 1
	}
}
