package placement

import (
	"context"
	"math"

	"github.com/jimwhimpey/beforeafterify/pkg/assets"
	"github.com/jimwhimpey/beforeafterify/pkg/types"
)

// SaliencyConfig tunes the built-in subject locator.
type SaliencyConfig struct {
	// CellCount is the grid resolution the saliency map is accumulated at,
	// per axis.
	CellCount int
	// Threshold is the multiple of the mean cell saliency a cell must reach
	// to count as part of the subject.
	Threshold float64
	// ContrastWeight and EdgeWeight balance local brightness against edge
	// strength in the per-pixel score.
	ContrastWeight float64
	EdgeWeight     float64
}

// DefaultSaliencyConfig returns the default locator tuning.
func DefaultSaliencyConfig() SaliencyConfig {
	return SaliencyConfig{
		CellCount:      24,
		Threshold:      1.4,
		ContrastWeight: 0.3,
		EdgeWeight:     0.7,
	}
}

// SaliencyLocator finds the dominant subject with a local edge/contrast
// saliency map. It is the no-network fallback for the model locators.
type SaliencyLocator struct {
	config SaliencyConfig
}

// NewSaliencyLocator creates a locator with default configuration.
func NewSaliencyLocator() *SaliencyLocator {
	return &SaliencyLocator{config: DefaultSaliencyConfig()}
}

// NewSaliencyLocatorWithConfig creates a locator with custom configuration.
func NewSaliencyLocatorWithConfig(config SaliencyConfig) *SaliencyLocator {
	return &SaliencyLocator{config: config}
}

// Locate accumulates a cell-grid saliency map over the asset and returns the
// bounding box of the cells that clear the threshold, normalized to [0,1].
// Images with no salient structure get a centered default box.
func (s *SaliencyLocator) Locate(_ context.Context, a *assets.Asset) (types.Box, error) {
	cells := s.config.CellCount
	if cells < 2 {
		cells = 2
	}

	img := a.Image
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 2 || h < 2 {
		return types.Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5}, nil
	}

	// Luminance plane first so the gradient pass touches each pixel once.
	lum := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			lum[y*w+x] = (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 65535.0
		}
	}

	grid := make([]float64, cells*cells)
	counts := make([]int, cells*cells)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			dx := lum[y*w+x+1] - lum[y*w+x-1]
			dy := lum[(y+1)*w+x] - lum[(y-1)*w+x]
			edge := math.Abs(dx) + math.Abs(dy)
			score := s.config.EdgeWeight*edge + s.config.ContrastWeight*lum[y*w+x]

			cx := x * cells / w
			cy := y * cells / h
			grid[cy*cells+cx] += score
			counts[cy*cells+cx]++
		}
	}

	var mean float64
	for i := range grid {
		if counts[i] > 0 {
			grid[i] /= float64(counts[i])
		}
		mean += grid[i]
	}
	mean /= float64(len(grid))
	if mean <= 0 {
		return types.Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5}, nil
	}

	threshold := mean * s.config.Threshold
	minX, minY := cells, cells
	maxX, maxY := -1, -1
	for cy := 0; cy < cells; cy++ {
		for cx := 0; cx < cells; cx++ {
			if grid[cy*cells+cx] < threshold {
				continue
			}
			if cx < minX {
				minX = cx
			}
			if cy < minY {
				minY = cy
			}
			if cx > maxX {
				maxX = cx
			}
			if cy > maxY {
				maxY = cy
			}
		}
	}
	if maxX < 0 {
		return types.Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5}, nil
	}

	box := types.Box{
		X: float64(minX) / float64(cells),
		Y: float64(minY) / float64(cells),
		W: float64(maxX-minX+1) / float64(cells),
		H: float64(maxY-minY+1) / float64(cells),
	}
	return box.Clamp(), nil
}
