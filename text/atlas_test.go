package text

import (
	"errors"
	"testing"

	gtfont "github.com/go-text/typesetting/font"
)

func bitmap(w, h int, v byte) glyphBitmap {
	mask := make([]byte, w*h)
	for i := range mask {
		mask[i] = v
	}
	return glyphBitmap{mask: mask, w: w, h: h, top: -h}
}

func key(gid int) glyphKey { return glyphKey{gid: gtfont.GID(gid), size: 30 * 64} }

func TestAtlasInsertCopiesMask(t *testing.T) {
	a := NewAtlas(32, 32)
	e, err := a.insert(key(1), bitmap(4, 3, 200))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !a.Dirty() || !a.Resized() {
		t.Error("new atlas should be dirty and resized")
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			if got := a.Pix()[(e.y+y)*a.Size()+e.x+x]; got != 200 {
				t.Fatalf("texel (%d, %d) = %d, want 200", x, y, got)
			}
		}
	}
	a.MarkClean()
	if a.Dirty() || a.Resized() {
		t.Error("MarkClean left flags set")
	}
	if _, ok := a.lookup(key(1)); !ok {
		t.Error("lookup after insert failed")
	}
}

func TestAtlasEmptyGlyph(t *testing.T) {
	a := NewAtlas(16, 16)
	e, err := a.insert(key(3), glyphBitmap{})
	if err != nil {
		t.Fatalf("insert empty: %v", err)
	}
	if e.w != 0 || e.h != 0 {
		t.Errorf("empty glyph size = %dx%d", e.w, e.h)
	}
	if a.Utilization() != 0 {
		t.Errorf("utilization = %v, want 0", a.Utilization())
	}
}

func TestAtlasGrows(t *testing.T) {
	a := NewAtlas(16, 64)
	for i := 0; i < 8; i++ {
		if _, err := a.insert(key(i), bitmap(12, 12, byte(i+1))); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	if a.Size() <= 16 {
		t.Errorf("size = %d, want growth past 16", a.Size())
	}
	// Every glyph keeps its own pixels after repacking.
	for i := 0; i < 8; i++ {
		e, ok := a.lookup(key(i))
		if !ok {
			t.Fatalf("glyph %d lost after growth", i)
		}
		if got := a.Pix()[e.y*a.Size()+e.x]; got != byte(i+1) {
			t.Errorf("glyph %d texel = %d, want %d", i, got, i+1)
		}
	}
}

// Placed in this order the first four glyphs fit a 16 texel atlas, but a
// tallest-first repack of them leaves the 10x1 glyph without room.
var repackSizes = [][2]int{{8, 2}, {5, 1}, {1, 12}, {10, 1}, {7, 2}}

func TestAtlasInsertKeepsEarlierEntries(t *testing.T) {
	a := NewAtlas(16, 64)
	entries := make([]*atlasEntry, len(repackSizes))
	for i, sz := range repackSizes {
		e, err := a.insert(key(i), bitmap(sz[0], sz[1], byte(i+1)))
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		entries[i] = e
	}
	if a.Size() != 32 {
		t.Errorf("size = %d, want 32 after the repack ran out of room", a.Size())
	}

	// Quads built earlier in the frame hold these entries; each must
	// still be cached and point at its own texels.
	for i, want := range entries {
		got, ok := a.lookup(key(i))
		if !ok {
			t.Fatalf("glyph %d dropped by insert", i)
		}
		if got != want {
			t.Errorf("glyph %d replaced by a new entry", i)
		}
		for y := 0; y < want.h; y++ {
			for x := 0; x < want.w; x++ {
				if v := a.Pix()[(want.y+y)*a.Size()+want.x+x]; v != byte(i+1) {
					t.Fatalf("glyph %d texel (%d, %d) = %d, want %d", i, x, y, v, i+1)
				}
			}
		}
	}
}

func TestAtlasFullDropsUnplaced(t *testing.T) {
	a := NewAtlas(16, 16)
	for i, sz := range repackSizes[:4] {
		if _, err := a.insert(key(i), bitmap(sz[0], sz[1], byte(i+1))); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	last := repackSizes[4]
	if _, err := a.insert(key(4), bitmap(last[0], last[1], 5)); !errors.Is(err, ErrAtlasFull) {
		t.Fatalf("insert = %v, want ErrAtlasFull", err)
	}
	if _, ok := a.lookup(key(3)); ok {
		t.Error("glyph without a placement kept in the cache")
	}
	for i := 0; i < 3; i++ {
		e, ok := a.lookup(key(i))
		if !ok {
			t.Fatalf("placed glyph %d dropped", i)
		}
		if v := a.Pix()[e.y*a.Size()+e.x]; v != byte(i+1) {
			t.Errorf("glyph %d texel = %d, want %d", i, v, i+1)
		}
	}
}

func TestAtlasFull(t *testing.T) {
	a := NewAtlas(16, 16)
	_, err := a.insert(key(1), bitmap(20, 20, 1))
	if !errors.Is(err, ErrAtlasFull) {
		t.Errorf("insert oversized glyph error = %v, want ErrAtlasFull", err)
	}
}

func TestAtlasTrimEvictsUnused(t *testing.T) {
	a := NewAtlas(64, 64)
	for i := 0; i < 3; i++ {
		if _, err := a.insert(key(i), bitmap(8, 8, 9)); err != nil {
			t.Fatal(err)
		}
	}
	// Everything was used in the first frame.
	if n := a.Trim(); n != 0 {
		t.Fatalf("first Trim evicted %d, want 0", n)
	}

	// Second frame uses only glyph 1.
	if _, ok := a.lookup(key(1)); !ok {
		t.Fatal("glyph 1 missing")
	}
	if n := a.Trim(); n != 2 {
		t.Fatalf("second Trim evicted %d, want 2", n)
	}
	if a.Len() != 1 {
		t.Errorf("Len = %d, want 1", a.Len())
	}
	if _, ok := a.lookup(key(0)); ok {
		t.Error("unused glyph 0 survived Trim")
	}
	e, ok := a.lookup(key(1))
	if !ok {
		t.Fatal("used glyph 1 evicted")
	}
	if e.x != 0 || e.y != 0 {
		t.Errorf("survivor at (%d, %d) after repack, want (0, 0)", e.x, e.y)
	}
}
