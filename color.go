package rrect

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/chewxy/math32"
)

// Color is a linear-light color with straight (non-premultiplied) alpha.
// Each component is in the range [0, 1].
type Color struct {
	R, G, B, A float32
}

// RGB creates an opaque color from linear RGB components.
func RGB(r, g, b float32) Color {
	return Color{R: r, G: g, B: b, A: 1}
}

// RGBA creates a color from linear RGBA components.
func RGBA(r, g, b, a float32) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// Common colors
var (
	Transparent = Color{}
	Black       = RGB(0, 0, 0)
	White       = RGB(1, 1, 1)
	Red         = RGB(1, 0, 0)
)

// ParseHex decodes a display (sRGB) hex color into linear space.
// Supports formats: "RGB", "RGBA", "RRGGBB", "RRGGBBAA", with or without
// a leading '#'. Alpha is not gamma encoded and is taken as is.
func ParseHex(hex string) (Color, error) {
	s := strings.TrimPrefix(hex, "#")

	var v [4]uint32
	v[3] = 255

	switch len(s) {
	case 3, 4:
		for i := 0; i < len(s); i++ {
			d, ok := hexDigit(s[i])
			if !ok {
				return Color{}, fmt.Errorf("rrect: invalid hex color %q", hex)
			}
			v[i] = d * 17
		}
	case 6, 8:
		for i := 0; i < len(s)/2; i++ {
			hi, ok1 := hexDigit(s[2*i])
			lo, ok2 := hexDigit(s[2*i+1])
			if !ok1 || !ok2 {
				return Color{}, fmt.Errorf("rrect: invalid hex color %q", hex)
			}
			v[i] = hi<<4 | lo
		}
	default:
		return Color{}, fmt.Errorf("rrect: invalid hex color %q", hex)
	}

	return Color{
		R: SRGBToLinear(float32(v[0]) / 255),
		G: SRGBToLinear(float32(v[1]) / 255),
		B: SRGBToLinear(float32(v[2]) / 255),
		A: float32(v[3]) / 255,
	}, nil
}

func hexDigit(c byte) (uint32, bool) {
	switch {
	case '0' <= c && c <= '9':
		return uint32(c - '0'), true
	case 'a' <= c && c <= 'f':
		return uint32(c - 'a' + 10), true
	case 'A' <= c && c <= 'F':
		return uint32(c - 'A' + 10), true
	}
	return 0, false
}

// SRGBToLinear decodes one sRGB-encoded channel.
func SRGBToLinear(c float32) float32 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math32.Pow((c+0.055)/1.055, 2.4)
}

// LinearToSRGB encodes one linear channel for display.
func LinearToSRGB(c float32) float32 {
	if c <= 0.0031308 {
		return c * 12.92
	}
	return 1.055*math32.Pow(c, 1/2.4) - 0.055
}

// Premultiply returns the color with RGB scaled by alpha.
func (c Color) Premultiply() Color {
	return Color{R: c.R * c.A, G: c.G * c.A, B: c.B * c.A, A: c.A}
}

// Valid reports whether every component is a number within [0, 1].
func (c Color) Valid() bool {
	for _, v := range [4]float32{c.R, c.G, c.B, c.A} {
		if !(v >= 0 && v <= 1) {
			return false
		}
	}
	return true
}

// NRGBA converts the color to an 8-bit sRGB-encoded color.NRGBA.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{
		R: quantize(LinearToSRGB(c.R)),
		G: quantize(LinearToSRGB(c.G)),
		B: quantize(LinearToSRGB(c.B)),
		A: quantize(c.A),
	}
}

// quantize maps [0, 1] to [0, 255] with rounding and clamping.
func quantize(v float32) uint8 {
	x := v*255 + 0.5
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return uint8(x)
}
