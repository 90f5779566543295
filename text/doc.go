// Package text lays out and rasterizes the text overlay drawn on top of
// the rounded rectangles.
//
// A Buffer holds one block of text with its metrics, position, clip
// bounds and color. An Overlay owns a set of buffers and a glyph Atlas:
//
//	face, err := text.DefaultFace()
//	if err != nil {
//	    return err
//	}
//	ov := text.NewOverlay(face)
//	buf := text.NewBuffer("Hello", text.Metrics{FontSize: 30, LineHeight: 42})
//	buf.Left, buf.Top = 10, 10
//	ov.Add(buf)
//
//	quads, err := ov.Prepare(width, height) // once per frame
//	...
//	ov.Trim() // after the frame is submitted
//
// Shaping uses the HarfBuzz port of go-text/typesetting, paragraph
// direction comes from golang.org/x/text/unicode/bidi, and glyph outlines
// are rasterized with golang.org/x/image/font/sfnt and
// golang.org/x/image/vector into a single-channel coverage atlas.
package text
