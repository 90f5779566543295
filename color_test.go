package rrect

import (
	"testing"

	"github.com/chewxy/math32"
)

func approxEqual(a, b, eps float32) bool {
	return math32.Abs(a-b) <= eps
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Color
	}{
		{"white", "#ffffff", White},
		{"black short", "000", Black},
		{"red with alpha", "#ff000080", Color{R: 1, A: 128.0 / 255}},
		{"short with alpha", "#0f0f", Color{G: 1, A: 1}},
		{"mid gray decodes to linear", "#808080", Color{R: 0.2158605, G: 0.2158605, B: 0.2158605, A: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHex(tt.in)
			if err != nil {
				t.Fatalf("ParseHex(%q): %v", tt.in, err)
			}
			if !approxEqual(got.R, tt.want.R, 1e-5) || !approxEqual(got.G, tt.want.G, 1e-5) ||
				!approxEqual(got.B, tt.want.B, 1e-5) || !approxEqual(got.A, tt.want.A, 1e-5) {
				t.Errorf("ParseHex(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseHexInvalid(t *testing.T) {
	for _, in := range []string{"", "#12", "#12345", "#gggggg", "zzz"} {
		if _, err := ParseHex(in); err == nil {
			t.Errorf("ParseHex(%q) succeeded, want error", in)
		}
	}
}

func TestSRGBRoundTrip(t *testing.T) {
	for i := 0; i <= 20; i++ {
		v := float32(i) / 20
		if got := LinearToSRGB(SRGBToLinear(v)); !approxEqual(got, v, 1e-5) {
			t.Errorf("round trip of %v = %v", v, got)
		}
	}
}

func TestSRGBKnownValues(t *testing.T) {
	tests := []struct{ srgb, linear float32 }{
		{0, 0},
		{0.04045, 0.04045 / 12.92},
		{0.5, 0.214041},
		{1, 1},
	}
	for _, tt := range tests {
		if got := SRGBToLinear(tt.srgb); !approxEqual(got, tt.linear, 1e-5) {
			t.Errorf("SRGBToLinear(%v) = %v, want %v", tt.srgb, got, tt.linear)
		}
		if got := LinearToSRGB(tt.linear); !approxEqual(got, tt.srgb, 1e-4) {
			t.Errorf("LinearToSRGB(%v) = %v, want %v", tt.linear, got, tt.srgb)
		}
	}
}

func TestColorPremultiply(t *testing.T) {
	got := RGBA(1, 0.5, 0, 0.5).Premultiply()
	want := RGBA(0.5, 0.25, 0, 0.5)
	if got != want {
		t.Errorf("Premultiply = %+v, want %+v", got, want)
	}
}

func TestColorValid(t *testing.T) {
	if !RGBA(0, 0, 0, 0.7).Valid() {
		t.Error("RGBA(0,0,0,0.7) should be valid")
	}
	if RGBA(1.5, 0, 0, 1).Valid() {
		t.Error("component above 1 should be invalid")
	}
	if RGBA(math32.NaN(), 0, 0, 1).Valid() {
		t.Error("NaN component should be invalid")
	}
}

func TestColorNRGBA(t *testing.T) {
	got := RGBA(1, 0, SRGBToLinear(0.5), 0.5).NRGBA()
	if got.R != 255 || got.G != 0 || got.B != 128 || got.A != 128 {
		t.Errorf("NRGBA = %+v, want {255 0 128 128}", got)
	}
}
