package config

import (
	"fmt"

	"github.com/gogpu/rrect"
)

// parseColor accepts a hex string or an array of 3 or 4 numbers. Arrays
// decoded from TOML arrive as []any holding int64 or float64.
func parseColor(v any) (rrect.Color, error) {
	var comps []float32
	switch c := v.(type) {
	case string:
		col, err := rrect.ParseHex(c)
		if err != nil {
			return rrect.Color{}, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		return col, nil
	case []float32:
		comps = c
	case []float64:
		for _, f := range c {
			comps = append(comps, float32(f))
		}
	case []any:
		for i, e := range c {
			switch n := e.(type) {
			case float64:
				comps = append(comps, float32(n))
			case int64:
				comps = append(comps, float32(n))
			default:
				return rrect.Color{}, fmt.Errorf("%w: color component %d is %T", ErrInvalid, i, e)
			}
		}
	default:
		return rrect.Color{}, fmt.Errorf("%w: color must be a hex string or an array, got %T", ErrInvalid, v)
	}

	var col rrect.Color
	switch len(comps) {
	case 3:
		col = rrect.RGB(comps[0], comps[1], comps[2])
	case 4:
		col = rrect.RGBA(comps[0], comps[1], comps[2], comps[3])
	default:
		return rrect.Color{}, fmt.Errorf("%w: color has %d components, want 3 or 4", ErrInvalid, len(comps))
	}
	if !col.Valid() {
		return rrect.Color{}, fmt.Errorf("%w: color %v out of range", ErrInvalid, comps)
	}
	return col, nil
}
