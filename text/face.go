package text

import (
	"bytes"
	"fmt"

	gtfont "github.com/go-text/typesetting/font"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Face is a parsed font usable for both shaping and rasterization.
//
// The same font data is parsed twice: go-text/typesetting drives HarfBuzz
// shaping and golang.org/x/image/font/sfnt provides glyph outlines. A Face
// is not safe for concurrent use.
type Face struct {
	shaping *gtfont.Face
	outline *sfnt.Font
	buf     sfnt.Buffer
	name    string
}

// ParseFace parses TrueType or OpenType font data.
func ParseFace(data []byte) (*Face, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}
	shapingFace, err := gtfont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("text: parse font for shaping: %w", err)
	}
	outline, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("text: parse font outlines: %w", err)
	}
	f := &Face{shaping: shapingFace, outline: outline}
	if name, err := outline.Name(&f.buf, sfnt.NameIDFull); err == nil {
		f.name = name
	}
	return f, nil
}

// DefaultFace returns a new Face for the embedded Go Regular font.
func DefaultFace() (*Face, error) {
	return ParseFace(goregular.TTF)
}

// Name returns the full font name, or "" if the font has none.
func (f *Face) Name() string { return f.name }

// FaceMetrics holds vertical metrics at a given pixel size.
type FaceMetrics struct {
	Ascent  float32
	Descent float32
	Height  float32
}

// Metrics returns vertical metrics at size pixels per em.
func (f *Face) Metrics(size float32) (FaceMetrics, error) {
	m, err := f.outline.Metrics(&f.buf, toFixed(size), font.HintingNone)
	if err != nil {
		return FaceMetrics{}, fmt.Errorf("text: font metrics: %w", err)
	}
	return FaceMetrics{
		Ascent:  fromFixed(m.Ascent),
		Descent: fromFixed(m.Descent),
		Height:  fromFixed(m.Height),
	}, nil
}

// toFixed converts a float32 size to fixed.Int26_6.
func toFixed(v float32) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

// fromFixed converts a fixed.Int26_6 value to float32.
func fromFixed(v fixed.Int26_6) float32 {
	return float32(v) / 64
}
