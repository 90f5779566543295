package rrect

import (
	"testing"
)

func TestRoundedRectSDF(t *testing.T) {
	half := V2(50, 50)
	tests := []struct {
		name string
		p    Vec2
		r    float32
		want float32
	}{
		{"center", V2(0, 0), 30, -50},
		{"edge midpoint", V2(50, 0), 30, 0},
		{"outside edge", V2(60, 0), 30, 10},
		{"square corner", V2(50, 50), 0, 0},
		{"rounded corner is outside", V2(50, 50), 30, 12.426407},
		{"radius clamped to half extent", V2(0, 0), 500, -50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoundedRectSDF(tt.p, half, tt.r); !approxEqual(got, tt.want, 1e-4) {
				t.Errorf("RoundedRectSDF(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestCoverage(t *testing.T) {
	if got := Coverage(-10, 2); got != 1 {
		t.Errorf("deep inside = %v, want 1", got)
	}
	if got := Coverage(10, 2); got != 0 {
		t.Errorf("far outside = %v, want 0", got)
	}
	if got := Coverage(0, 2); !approxEqual(got, 0.5, 1e-6) {
		t.Errorf("on edge = %v, want 0.5", got)
	}
	// Zero softness is a hard edge, not a division by zero.
	if got := Coverage(-0.01, 0); got != 1 {
		t.Errorf("hard edge inside = %v, want 1", got)
	}
	if got := Coverage(0.01, 0); got != 0 {
		t.Errorf("hard edge outside = %v, want 0", got)
	}
}

func TestShadeStroke(t *testing.T) {
	r := Rect{
		Position:     V2(50, 50),
		Size:         V2(40, 40),
		BorderRadius: 0,
		Paint:        StrokeOnly(Stroke{Color: RGB(0, 0, 1), Width: 3}),
		Softness:     1,
	}
	g, err := BuildGeometry(NewScene(r))
	if err != nil {
		t.Fatal(err)
	}
	v, s := g.Vertices[0], g.Strokes[0]

	if c := Shade(v, s, V2(50, 50)); c.A != 0 {
		t.Errorf("stroke-only center alpha = %v, want 0", c.A)
	}
	// 1.5px inside the left edge: in the middle of the band.
	if c := Shade(v, s, V2(31.5, 50)); !approxEqual(c.A, 1, 1e-6) || !approxEqual(c.B, 1, 1e-6) {
		t.Errorf("stroke band = %+v, want opaque blue", c)
	}

	r.Paint = FillAndStroke(RGB(1, 1, 0), Stroke{Color: RGB(0, 0, 1), Width: 3})
	g, _ = BuildGeometry(NewScene(r))
	if c := Shade(g.Vertices[0], g.Strokes[0], V2(50, 50)); c != RGB(1, 1, 0) {
		t.Errorf("fill-and-stroke center = %+v, want yellow fill", c)
	}
}

// The second default rectangle has the lower z index but is drawn later,
// so it ends up on top: buffer order, not z index, decides compositing.
func TestDefaultSceneCompositesInBufferOrder(t *testing.T) {
	clear := RGBA(0.1, 0.2, 0.3, 1)
	g, err := BuildGeometry(DefaultScene())
	if err != nil {
		t.Fatal(err)
	}
	fb := NewFramebuffer(400, 400, clear)
	fb.DrawGeometry(g)

	center := fb.At(198, 198)
	if !approxEqual(center.R, 1, 1e-6) || center.G != 0 || center.B != 0 || !approxEqual(center.A, 1, 1e-6) {
		t.Errorf("overlap pixel = %+v, want opaque red on top", center)
	}

	// Only the shadow reaches x=249.
	shadow := fb.At(249, 200)
	if shadow.R >= clear.R || shadow.B >= clear.B {
		t.Errorf("shadow pixel = %+v, want darker than clear %+v", shadow, clear)
	}

	// Untouched background keeps the clear color.
	if got := fb.At(10, 10); got != clear.Premultiply() {
		t.Errorf("background = %+v, want %+v", got, clear)
	}

	// Reversing the scene order puts the translucent black on top.
	rects := DefaultScene().Rects()
	reversed, err := BuildGeometry(NewScene(rects[1], rects[0]))
	if err != nil {
		t.Fatal(err)
	}
	fb2 := NewFramebuffer(400, 400, clear)
	fb2.DrawGeometry(reversed)
	if got := fb2.At(198, 198); got.R > 0.31 {
		t.Errorf("reversed overlap pixel = %+v, want red darkened by the shadow", got)
	}
}

func TestRenderImage(t *testing.T) {
	img, err := RenderImage(DefaultScene(), Size{Width: 320, Height: 240}, RGBA(0.1, 0.2, 0.3, 1))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 240 {
		t.Fatalf("bounds = %v", b)
	}
	if c := img.NRGBAAt(198, 198); c.R != 255 || c.G != 0 || c.B != 0 || c.A != 255 {
		t.Errorf("center = %+v, want opaque red", c)
	}
	// Clear color (0.1, 0.2, 0.3) is linear; the image is sRGB encoded.
	if c := img.NRGBAAt(0, 0); c.R != 89 || c.G != 124 || c.B != 149 {
		t.Errorf("background = %+v, want sRGB (89, 124, 149)", c)
	}

	bad := NewScene(Rect{Size: V2(1, 1)})
	if _, err := RenderImage(bad, Size{Width: 4, Height: 4}, Black); err == nil {
		t.Error("RenderImage accepted a rect without paint")
	}
}
