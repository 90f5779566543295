package text

import (
	"strings"

	"github.com/go-text/typesetting/di"
)

// PositionedGlyph is a glyph with its pen position on the baseline,
// relative to the buffer origin, in physical pixels.
type PositionedGlyph struct {
	key  glyphKey
	X, Y float32
}

// Line is one wrapped line of a layout.
type Line struct {
	// Start and End are rune offsets of the line within its paragraph.
	Start, End int
	// Width is the advance of the visible glyphs.
	Width float32
	// Baseline is the y coordinate of the baseline relative to the top.
	Baseline float32
	// RTL is set for lines of right-to-left paragraphs.
	RTL    bool
	Glyphs []PositionedGlyph
}

// Layout is a shaped and wrapped block of text.
type Layout struct {
	Lines  []Line
	Height float32
	// Size is the font size in physical pixels the glyphs were shaped at.
	Size float32
}

// layoutText shapes text at size pixels per em, splits it into paragraphs
// at newlines and wraps each paragraph to maxWidth. Lines are lineHeight
// apart with the font's ascent and descent centered in each line.
// Right-to-left lines are aligned to maxWidth when wrapping is enabled.
func layoutText(s *shaper, text string, size, lineHeight, maxWidth float32) (*Layout, error) {
	fm, err := s.face.Metrics(size)
	if err != nil {
		return nil, err
	}
	baseline := (lineHeight-(fm.Ascent+fm.Descent))/2 + fm.Ascent

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	l := &Layout{Size: size}
	var y float32
	for _, para := range strings.Split(text, "\n") {
		runes := []rune(para)
		dir := paragraphDirection(para)
		adv := runeAdvances(s.shape(runes, 0, len(runes), size, dir), 0, len(runes))

		for _, r := range wrapRunes(runes, adv, maxWidth) {
			line := Line{Start: r.start, End: r.end, Baseline: y + baseline, RTL: dir == di.DirectionRTL}
			var x float32
			for _, g := range s.shape(runes, r.start, visibleEnd(runes, r), size, dir) {
				line.Glyphs = append(line.Glyphs, PositionedGlyph{
					key: glyphKey{gid: g.GlyphID, size: toFixed(size)},
					X:   x + fromFixed(g.XOffset),
					Y:   line.Baseline - fromFixed(g.YOffset),
				})
				x += fromFixed(g.Advance)
			}
			line.Width = x
			if line.RTL && maxWidth > 0 {
				shift := maxWidth - x
				for i := range line.Glyphs {
					line.Glyphs[i].X += shift
				}
			}
			l.Lines = append(l.Lines, line)
			y += lineHeight
		}
	}
	l.Height = y
	return l, nil
}
