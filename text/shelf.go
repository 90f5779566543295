package text

// shelfPacker places glyph masks in horizontal shelves. Each shelf is as
// tall as the tallest mask placed on it; masks go left to right until a
// shelf is full, then a new shelf starts below. Space is only reclaimed
// by reset, so the atlas repacks after evicting glyphs.
type shelfPacker struct {
	width, height int
	padding       int
	shelves       []shelf
	usedArea      int
}

// shelf represents a horizontal strip in the atlas.
type shelf struct {
	y      int // top of the shelf
	height int // tallest item so far
	x      int // next free column
}

func newShelfPacker(width, height, padding int) *shelfPacker {
	return &shelfPacker{
		width:   width,
		height:  height,
		padding: padding,
		shelves: make([]shelf, 0, 16),
	}
}

// allocate finds space for a w by h mask. It returns -1, -1, false when
// the mask fits nowhere.
func (a *shelfPacker) allocate(w, h int) (x, y int, ok bool) {
	paddedW := w + a.padding
	paddedH := h + a.padding
	if paddedW > a.width || paddedH > a.height {
		return -1, -1, false
	}

	for i := range a.shelves {
		s := &a.shelves[i]
		if s.x+paddedW > a.width {
			continue
		}
		if h > s.height {
			// Only the last shelf can grow taller.
			if i != len(a.shelves)-1 || s.y+paddedH > a.height {
				continue
			}
			s.height = h
		}
		x, y = s.x, s.y
		s.x += paddedW
		a.usedArea += w * h
		return x, y, true
	}

	newY := 0
	if n := len(a.shelves); n > 0 {
		last := a.shelves[n-1]
		newY = last.y + last.height + a.padding
	}
	if newY+paddedH > a.height {
		return -1, -1, false
	}
	a.shelves = append(a.shelves, shelf{y: newY, height: h, x: paddedW})
	a.usedArea += w * h
	return 0, newY, true
}

// reset clears all allocations, keeping capacity.
func (a *shelfPacker) reset() {
	a.shelves = a.shelves[:0]
	a.usedArea = 0
}

// utilization returns the fraction of the area covered by masks.
func (a *shelfPacker) utilization() float64 {
	if a.width <= 0 || a.height <= 0 {
		return 0
	}
	return float64(a.usedArea) / float64(a.width*a.height)
}
