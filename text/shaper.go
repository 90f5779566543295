package text

import (
	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/text/unicode/bidi"
)

// shaper wraps a HarfBuzz shaper bound to one face. HarfbuzzShaper keeps
// internal buffers and is reused across calls from one goroutine.
type shaper struct {
	face *Face
	hb   shaping.HarfbuzzShaper
	lang language.Language
}

func newShaper(face *Face) *shaper {
	return &shaper{face: face, lang: language.NewLanguage("en")}
}

// shape shapes runes[start:end] at size pixels per em and returns the
// glyphs in visual order.
func (s *shaper) shape(runes []rune, start, end int, size float32, dir di.Direction) []shaping.Glyph {
	if start >= end {
		return nil
	}
	input := shaping.Input{
		Text:      runes,
		RunStart:  start,
		RunEnd:    end,
		Direction: dir,
		Face:      s.face.shaping,
		Size:      toFixed(size),
		Script:    detectScript(runes[start:end]),
		Language:  s.lang,
	}
	return s.hb.Shape(input).Glyphs
}

// detectScript returns the script of the first non-space rune.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

// paragraphDirection resolves the base direction of a paragraph from its
// first strong character, using the Unicode bidi algorithm.
func paragraphDirection(para string) di.Direction {
	p := bidi.Paragraph{}
	if _, err := p.SetString(para, bidi.DefaultDirection(bidi.Neutral)); err != nil {
		return di.DirectionLTR
	}
	ordering, err := p.Order()
	if err != nil {
		return di.DirectionLTR
	}
	for i := 0; i < ordering.NumRuns(); i++ {
		run := ordering.Run(i)
		if start, _ := run.Pos(); start == 0 {
			if run.Direction() == bidi.RightToLeft {
				return di.DirectionRTL
			}
			return di.DirectionLTR
		}
	}
	return di.DirectionLTR
}
