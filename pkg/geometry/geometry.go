// Package geometry provides the scale and clamping primitives shared by the
// label layout engine and the preview renderer.
package geometry

// FitScale returns the factor by which a native image must be shrunk to fit
// inside a bounding box of maxWidth x maxHeight. The result is capped at 1:
// images smaller than the box are never upscaled. Non-positive inputs yield 1.
func FitScale(nativeWidth, nativeHeight, maxWidth, maxHeight int) float64 {
	if nativeWidth <= 0 || nativeHeight <= 0 || maxWidth <= 0 || maxHeight <= 0 {
		return 1
	}

	sx := float64(maxWidth) / float64(nativeWidth)
	sy := float64(maxHeight) / float64(nativeHeight)

	scale := sx
	if sy < scale {
		scale = sy
	}
	if scale > 1 {
		scale = 1
	}
	return scale
}

// Clamp constrains v to [lo, hi]. When hi < lo the range is degenerate and the
// low bound wins; callers pass lo=0 so an oversized rectangle overflows on the
// right/bottom edge instead of producing an inverted position.
func Clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Footprint is the measured extent of a single line of text: the advance width
// plus the vertical extents above and below the baseline. The zero value is
// the footprint of empty text.
type Footprint struct {
	Width   float64
	Ascent  float64
	Descent float64
}

// TotalHeight returns the full line height, ascent plus descent.
func (f Footprint) TotalHeight() float64 {
	return f.Ascent + f.Descent
}

// Empty reports whether the footprint covers no area.
func (f Footprint) Empty() bool {
	return f.Width <= 0 || f.TotalHeight() <= 0
}
