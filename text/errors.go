package text

import "errors"

// Sentinel errors for text package.
var (
	// ErrEmptyFontData is returned when font data is empty.
	ErrEmptyFontData = errors.New("text: empty font data")

	// ErrAtlasFull is returned when a glyph does not fit into the atlas
	// even at its maximum size.
	ErrAtlasFull = errors.New("text: glyph atlas full")

	// ErrInvalidMetrics is returned for a non-positive font size or line
	// height.
	ErrInvalidMetrics = errors.New("text: invalid metrics")
)
