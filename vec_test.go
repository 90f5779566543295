package rrect

import (
	"testing"

	"github.com/chewxy/math32"
)

func TestVec2Arithmetic(t *testing.T) {
	a := V2(3, -4)
	b := V2(1, 2)

	if got := a.Add(b); got != V2(4, -2) {
		t.Errorf("Add = %v, want (4, -2)", got)
	}
	if got := a.Sub(b); got != V2(2, -6) {
		t.Errorf("Sub = %v, want (2, -6)", got)
	}
	if got := a.Mul(0.5); got != V2(1.5, -2) {
		t.Errorf("Mul = %v, want (1.5, -2)", got)
	}
	if got := a.Abs(); got != V2(3, 4) {
		t.Errorf("Abs = %v, want (3, 4)", got)
	}
	if got := a.Max(0); got != V2(3, 0) {
		t.Errorf("Max = %v, want (3, 0)", got)
	}
	if got := a.Length(); got != 5 {
		t.Errorf("Length = %v, want 5", got)
	}
	if got := V2(1, 0).Cross(V2(0, 1)); got != 1 {
		t.Errorf("Cross = %v, want 1", got)
	}
}

func TestVec2IsFinite(t *testing.T) {
	tests := []struct {
		v    Vec2
		want bool
	}{
		{V2(0, 0), true},
		{V2(math32.NaN(), 0), false},
		{V2(0, math32.Inf(1)), false},
		{V2(-1e30, 1e30), true},
	}
	for _, tt := range tests {
		if got := tt.v.IsFinite(); got != tt.want {
			t.Errorf("%v.IsFinite() = %v, want %v", tt.v, got, tt.want)
		}
	}
}
