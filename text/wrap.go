package text

import "github.com/go-text/typesetting/shaping"

// breakClass is a simplified UAX #14 line breaking class.
type breakClass uint8

const (
	breakOther breakClass = iota
	breakSpace
	breakZero
	breakOpen
	breakClose
	breakHyphen
	breakIdeographic
)

// classifyRune returns the break class of a rune.
func classifyRune(r rune) breakClass {
	switch r {
	case ' ', '\t':
		return breakSpace
	case '\u200B': // zero-width space
		return breakZero
	case '(', '[', '{', '\u201C', '\u2018':
		return breakOpen
	case ')', ']', '}', '\u201D', '\u2019':
		return breakClose
	case '-', '\u2010', '\u2011', '\u2013', '\u2014':
		return breakHyphen
	}
	if isCJKRune(r) {
		return breakIdeographic
	}
	return breakOther
}

// isCJKRune returns true if the rune is a CJK character that allows breaking.
func isCJKRune(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) || // CJK Unified Ideographs
		(r >= 0x3400 && r <= 0x4DBF) || // CJK Extension A
		(r >= 0x20000 && r <= 0x2A6DF) || // CJK Extension B
		(r >= 0x3040 && r <= 0x309F) || // Hiragana
		(r >= 0x30A0 && r <= 0x30FF) || // Katakana
		(r >= 0xAC00 && r <= 0xD7AF) || // Hangul Syllables
		(r >= 0xFF00 && r <= 0xFFEF) // Fullwidth forms
}

// canBreakBefore reports whether a line may start at runes[i].
func canBreakBefore(runes []rune, i int) bool {
	if i <= 0 || i >= len(runes) {
		return false
	}
	prev, curr := classifyRune(runes[i-1]), classifyRune(runes[i])
	switch {
	case curr == breakClose || prev == breakOpen:
		return false
	case prev == breakSpace || prev == breakZero:
		return curr != breakSpace
	case prev == breakHyphen:
		return curr != breakHyphen
	case curr == breakIdeographic || prev == breakIdeographic:
		return true
	}
	return false
}

// lineRange is a half-open range of rune indices forming one visual line.
type lineRange struct {
	start, end int
}

// runeAdvances distributes glyph advances onto the first rune of each
// glyph's cluster. The result is indexed relative to start.
func runeAdvances(glyphs []shaping.Glyph, start, n int) []float32 {
	adv := make([]float32, n)
	for _, g := range glyphs {
		if i := g.TextIndex() - start; i >= 0 && i < n {
			adv[i] += fromFixed(g.Advance)
		}
	}
	return adv
}

// wrapRunes greedily splits runes into lines no wider than maxWidth,
// breaking at the last break opportunity and falling back to a character
// break for words wider than a line. Trailing spaces never force a break.
// A non-positive maxWidth disables wrapping.
func wrapRunes(runes []rune, adv []float32, maxWidth float32) []lineRange {
	n := len(runes)
	if n == 0 {
		return []lineRange{{0, 0}}
	}
	var lines []lineRange
	lineStart, lastBreak := 0, -1
	var width float32
	for i := 0; i < n; i++ {
		if i > lineStart && canBreakBefore(runes, i) {
			lastBreak = i
		}
		if classifyRune(runes[i]) == breakSpace {
			width += adv[i]
			continue
		}
		if maxWidth > 0 && i > lineStart && width+adv[i] > maxWidth {
			brk := lastBreak
			if brk <= lineStart {
				brk = i
			}
			lines = append(lines, lineRange{lineStart, brk})
			lineStart, lastBreak = brk, -1
			width = 0
			for _, a := range adv[lineStart:i] {
				width += a
			}
		}
		width += adv[i]
	}
	return append(lines, lineRange{lineStart, n})
}

// visibleEnd returns end moved back over trailing spaces.
func visibleEnd(runes []rune, r lineRange) int {
	end := r.end
	for end > r.start && classifyRune(runes[end-1]) == breakSpace {
		end--
	}
	return end
}
