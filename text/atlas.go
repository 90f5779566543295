package text

import (
	"fmt"
	"sort"
)

// Atlas sizes in texels. The atlas is square and doubles until maxSize.
const (
	DefaultAtlasSize    = 256
	DefaultAtlasMaxSize = 2048
	atlasPadding        = 1
)

// atlasEntry is one glyph mask placed in the atlas.
type atlasEntry struct {
	x, y      int
	w, h      int
	left, top int
	mask      []byte
	lastUsed  uint64
}

// Atlas is a single-channel glyph cache packed with shelves. Glyphs used
// in a frame are marked; Trim evicts glyphs not used since the previous
// Trim and repacks the survivors.
type Atlas struct {
	size    int
	maxSize int
	pix     []byte
	packer  *shelfPacker
	glyphs  map[glyphKey]*atlasEntry

	generation uint64
	dirty      bool
	resized    bool
}

// NewAtlas creates an empty atlas of size texels per side that may grow
// up to maxSize.
func NewAtlas(size, maxSize int) *Atlas {
	if size <= 0 {
		size = DefaultAtlasSize
	}
	if maxSize < size {
		maxSize = size
	}
	return &Atlas{
		size:    size,
		maxSize: maxSize,
		pix:     make([]byte, size*size),
		packer:  newShelfPacker(size, size, atlasPadding),
		glyphs:  make(map[glyphKey]*atlasEntry),
		dirty:   true,
		resized: true,
	}
}

// Size returns the side length in texels.
func (a *Atlas) Size() int { return a.size }

// Pix returns the R8 texel data, row-major with stride Size.
func (a *Atlas) Pix() []byte { return a.pix }

// Len returns the number of cached glyphs.
func (a *Atlas) Len() int { return len(a.glyphs) }

// Dirty reports whether Pix changed since MarkClean.
func (a *Atlas) Dirty() bool { return a.dirty }

// Resized reports whether Size changed since MarkClean.
func (a *Atlas) Resized() bool { return a.resized }

// MarkClean clears the dirty and resized flags after an upload.
func (a *Atlas) MarkClean() {
	a.dirty = false
	a.resized = false
}

// Utilization returns the fraction of texels covered by glyph masks.
func (a *Atlas) Utilization() float64 { return a.packer.utilization() }

// lookup returns the cached glyph and marks it used.
func (a *Atlas) lookup(key glyphKey) (*atlasEntry, bool) {
	e, ok := a.glyphs[key]
	if ok {
		e.lastUsed = a.generation
	}
	return e, ok
}

// insert places bm in the atlas, repacking and then growing when the
// current layout has no room. Entries already handed out keep valid
// coordinates: a repack that cannot place every cached glyph grows the
// atlas instead of dropping any.
func (a *Atlas) insert(key glyphKey, bm glyphBitmap) (*atlasEntry, error) {
	e := &atlasEntry{w: bm.w, h: bm.h, left: bm.left, top: bm.top, mask: bm.mask, lastUsed: a.generation}
	if bm.w > 0 && bm.h > 0 && !a.place(e) {
		unplaced := a.repack()
		for len(unplaced) > 0 || !a.place(e) {
			if a.size >= a.maxSize {
				a.drop(unplaced)
				return nil, fmt.Errorf("%w: %dx%d glyph in %d texel atlas", ErrAtlasFull, bm.w, bm.h, a.size)
			}
			a.grow()
			unplaced = a.repack()
		}
	}
	a.glyphs[key] = e
	return e, nil
}

// place allocates room for e and copies its mask.
func (a *Atlas) place(e *atlasEntry) bool {
	x, y, ok := a.packer.allocate(e.w, e.h)
	if !ok {
		return false
	}
	e.x, e.y = x, y
	for row := 0; row < e.h; row++ {
		copy(a.pix[(y+row)*a.size+x:], e.mask[row*e.w:(row+1)*e.w])
	}
	a.dirty = true
	return true
}

// grow doubles the atlas. The caller repacks.
func (a *Atlas) grow() {
	a.size = min(a.size*2, a.maxSize)
	a.packer = newShelfPacker(a.size, a.size, atlasPadding)
	a.pix = make([]byte, a.size*a.size)
	a.resized = true
	slogger().Debug("text: atlas grown", "size", a.size, "glyphs", len(a.glyphs))
}

// repack clears the atlas and places every cached glyph again, tallest
// first. It returns the keys that did not fit; their entries hold stale
// coordinates until placed again or dropped.
func (a *Atlas) repack() []glyphKey {
	a.packer.reset()
	clear(a.pix)
	a.dirty = true

	keys := make([]glyphKey, 0, len(a.glyphs))
	for k, e := range a.glyphs {
		if e.w > 0 && e.h > 0 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		ei, ej := a.glyphs[keys[i]], a.glyphs[keys[j]]
		if ei.h != ej.h {
			return ei.h > ej.h
		}
		if keys[i].size != keys[j].size {
			return keys[i].size < keys[j].size
		}
		return keys[i].gid < keys[j].gid
	})
	var unplaced []glyphKey
	for _, k := range keys {
		if !a.place(a.glyphs[k]) {
			unplaced = append(unplaced, k)
		}
	}
	return unplaced
}

// drop removes entries; they are rasterized again when next used.
func (a *Atlas) drop(keys []glyphKey) {
	for _, k := range keys {
		delete(a.glyphs, k)
	}
}

// Trim evicts glyphs not used since the previous Trim and repacks when
// anything was evicted. It returns the number of evicted glyphs.
func (a *Atlas) Trim() int {
	evicted := 0
	for k, e := range a.glyphs {
		if e.lastUsed != a.generation {
			delete(a.glyphs, k)
			evicted++
		}
	}
	a.generation++
	if evicted > 0 {
		// No quads refer to entries between frames.
		a.drop(a.repack())
		slogger().Debug("text: atlas trimmed", "evicted", evicted, "glyphs", len(a.glyphs))
	}
	return evicted
}
