package layout

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ParseHexColor parses a CSS-style hex color ("#rgb", "#rrggbb", or
// "#rrggbbaa", leading '#' optional) into an NRGBA value.
func ParseHexColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")

	switch len(h) {
	case 3:
		var out [3]uint8
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseUint(string(h[i]), 16, 8)
			if err != nil {
				return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
			}
			out[i] = uint8(v * 17)
		}
		return color.NRGBA{R: out[0], G: out[1], B: out[2], A: 255}, nil
	case 6, 8:
		v, err := strconv.ParseUint(h, 16, 64)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
		}
		if len(h) == 6 {
			return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
		}
		return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: expected 3, 6, or 8 hex digits", s)
	}
}
