package rrect

import (
	"encoding/binary"
	"fmt"
	"math"
)

// VertexStride is the byte stride of Vertex in the primary vertex buffer.
// Layout per vertex (tightly packed, little endian):
//
//	position      (vec2<f32>) = 8 bytes  (location 0)
//	z_index       (f32)       = 4 bytes  (location 1)
//	color         (vec4<f32>) = 16 bytes (location 2)
//	border_radius (f32)       = 4 bytes  (location 3)
//	rect_position (vec2<f32>) = 8 bytes  (location 4)
//	rect_size     (vec2<f32>) = 8 bytes  (location 5)
//	softness      (f32)       = 4 bytes  (location 6)
//
// Total = 52 bytes per vertex.
const VertexStride = 52

// StrokeVertexStride is the byte stride of StrokeVertex in the stroke stream.
//
//	stroke_color (vec4<f32>) = 16 bytes (location 7)
//	stroke_width (f32)       = 4 bytes  (location 8)
const StrokeVertexStride = 20

const (
	verticesPerRect = 4
	indicesPerRect  = 6

	// maxRects keeps every index within uint16.
	maxRects = (math.MaxUint16 + 1) / verticesPerRect
)

// Vertex is one rectangle corner with the rectangle's full shading
// parameters, so the fragment stage can evaluate the rounded-rect SDF
// without any per-rectangle GPU resource.
type Vertex struct {
	Position     Vec2
	ZIndex       float32
	Color        Color
	BorderRadius float32
	RectPosition Vec2
	RectSize     Vec2
	Softness     float32
}

// StrokeVertex carries the stroke band of the corner's rectangle.
// A zero value means "no stroke".
type StrokeVertex struct {
	Color Color
	Width float32
}

// Geometry is the GPU-ready form of a scene: four vertices and six
// indices per rectangle, in scene order.
type Geometry struct {
	Vertices []Vertex
	Strokes  []StrokeVertex
	Indices  []uint16
}

// quadCorners are the corner sign pairs in emission order:
// (+w/2,-h/2), (+w/2,+h/2), (-w/2,+h/2), (-w/2,-h/2).
var quadCorners = [verticesPerRect]Vec2{{1, -1}, {1, 1}, {-1, 1}, {-1, -1}}

// quadIndices forms two triangles that are counter-clockwise once the
// y-down pixel space is flipped into clip space.
var quadIndices = [indicesPerRect]uint16{0, 2, 1, 0, 3, 2}

// BuildGeometry converts a scene into vertex and index arrays.
//
// For N rectangles it produces 4N vertices and 6N indices; the indices of
// rectangle i all lie in [4i, 4i+4). A stroke-only rectangle gets a
// transparent fill color. A rectangle without paint or with invalid
// parameters fails the whole build.
func BuildGeometry(scene Scene) (*Geometry, error) {
	n := scene.Len()
	if n > maxRects {
		return nil, fmt.Errorf("%w: %d rectangles, max %d", ErrSceneTooLarge, n, maxRects)
	}

	g := &Geometry{
		Vertices: make([]Vertex, 0, n*verticesPerRect),
		Strokes:  make([]StrokeVertex, 0, n*verticesPerRect),
		Indices:  make([]uint16, 0, n*indicesPerRect),
	}

	for i, r := range scene.rects {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("rect %d: %w", i, err)
		}

		fill, _ := r.Paint.Fill()
		var sv StrokeVertex
		if s, ok := r.Paint.Stroke(); ok {
			sv = StrokeVertex{Color: RGB(s.Color.R, s.Color.G, s.Color.B), Width: s.Width}
		}

		half := r.Size.Mul(0.5)
		for _, c := range quadCorners {
			g.Vertices = append(g.Vertices, Vertex{
				Position:     r.Position.Add(Vec2{X: c.X * half.X, Y: c.Y * half.Y}),
				ZIndex:       r.ZIndex,
				Color:        fill,
				BorderRadius: r.BorderRadius,
				RectPosition: r.Position,
				RectSize:     r.Size,
				Softness:     r.Softness,
			})
			g.Strokes = append(g.Strokes, sv)
		}

		base := uint16(i * verticesPerRect) //nolint:gosec // bounded by maxRects
		for _, idx := range quadIndices {
			g.Indices = append(g.Indices, base+idx)
		}
	}

	Logger().Debug("rrect: geometry built",
		"rects", n, "vertices", len(g.Vertices), "indices", len(g.Indices))
	return g, nil
}

// IndexCount returns the number of indices to draw.
func (g *Geometry) IndexCount() uint32 {
	return uint32(len(g.Indices)) //nolint:gosec // bounded by maxRects
}

// VertexBytes encodes the primary vertex stream.
func (g *Geometry) VertexBytes() []byte {
	buf := make([]byte, len(g.Vertices)*VertexStride)
	for i := range g.Vertices {
		writeVertex(buf[i*VertexStride:], &g.Vertices[i])
	}
	return buf
}

// StrokeBytes encodes the stroke stream.
func (g *Geometry) StrokeBytes() []byte {
	buf := make([]byte, len(g.Strokes)*StrokeVertexStride)
	for i := range g.Strokes {
		s := &g.Strokes[i]
		b := buf[i*StrokeVertexStride:]
		putF32(b[0:], s.Color.R)
		putF32(b[4:], s.Color.G)
		putF32(b[8:], s.Color.B)
		putF32(b[12:], s.Color.A)
		putF32(b[16:], s.Width)
	}
	return buf
}

// IndexBytes encodes the indices as little-endian uint16, padded with
// zeros to a multiple of 4 bytes as required for buffer writes.
func (g *Geometry) IndexBytes() []byte {
	size := len(g.Indices) * 2
	size = (size + 3) &^ 3
	buf := make([]byte, size)
	for i, idx := range g.Indices {
		binary.LittleEndian.PutUint16(buf[i*2:], idx)
	}
	return buf
}

// writeVertex writes a single vertex at the start of buf.
func writeVertex(buf []byte, v *Vertex) {
	putF32(buf[0:], v.Position.X)
	putF32(buf[4:], v.Position.Y)
	putF32(buf[8:], v.ZIndex)
	putF32(buf[12:], v.Color.R)
	putF32(buf[16:], v.Color.G)
	putF32(buf[20:], v.Color.B)
	putF32(buf[24:], v.Color.A)
	putF32(buf[28:], v.BorderRadius)
	putF32(buf[32:], v.RectPosition.X)
	putF32(buf[36:], v.RectPosition.Y)
	putF32(buf[40:], v.RectSize.X)
	putF32(buf[44:], v.RectSize.Y)
	putF32(buf[48:], v.Softness)
}

func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}
