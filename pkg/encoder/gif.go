// Package encoder produces the animated GIF byte stream for a composited
// frame pair.
package encoder

import (
	"bytes"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"

	"github.com/jimwhimpey/beforeafterify/pkg/pipeline"
)

// Options configures GIF encoding.
type Options struct {
	// Dither applies Floyd-Steinberg error diffusion during palettization.
	// Costs encode time, hides banding on photographic inputs.
	Dither bool
}

// DefaultOptions returns the default encoding options.
func DefaultOptions() Options {
	return Options{Dither: true}
}

// GIF encodes frame pairs as looping animated GIFs using the Plan 9 palette.
type GIF struct {
	opts Options
}

// NewGIF creates a GIF encoder with default options.
func NewGIF() *GIF {
	return &GIF{opts: DefaultOptions()}
}

// NewGIFWithOptions creates a GIF encoder with custom options.
func NewGIFWithOptions(opts Options) *GIF {
	return &GIF{opts: opts}
}

// Encode palettizes both frames and writes a two-frame GIF89a stream. The
// delay is converted to GIF's 10ms ticks (minimum one tick) and a loop count
// of zero loops forever.
func (g *GIF) Encode(pair pipeline.FramePair) ([]byte, error) {
	if pair.Frames[0] == nil || pair.Frames[1] == nil {
		return nil, fmt.Errorf("frame pair is incomplete")
	}
	if pair.DelayMs <= 0 {
		return nil, fmt.Errorf("frame delay %dms must be positive", pair.DelayMs)
	}
	if pair.LoopCount < 0 {
		return nil, fmt.Errorf("loop count %d must be non-negative", pair.LoopCount)
	}
	b0, b1 := pair.Frames[0].Bounds(), pair.Frames[1].Bounds()
	if b0.Dx() != b1.Dx() || b0.Dy() != b1.Dy() {
		return nil, fmt.Errorf("frame dimensions differ: %dx%d vs %dx%d",
			b0.Dx(), b0.Dy(), b1.Dx(), b1.Dy())
	}

	ticks := (pair.DelayMs + 5) / 10
	if ticks < 1 {
		ticks = 1
	}

	anim := &gif.GIF{
		LoopCount: pair.LoopCount,
		Config: image.Config{
			Width:  b0.Dx(),
			Height: b0.Dy(),
		},
	}
	for _, frame := range pair.Frames {
		anim.Image = append(anim.Image, g.palettize(frame))
		anim.Delay = append(anim.Delay, ticks)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return nil, fmt.Errorf("gif encoding failed: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *GIF) palettize(frame *image.NRGBA) *image.Paletted {
	rect := image.Rect(0, 0, frame.Bounds().Dx(), frame.Bounds().Dy())
	out := image.NewPaletted(rect, palette.Plan9)
	if g.opts.Dither {
		draw.FloydSteinberg.Draw(out, rect, frame, frame.Bounds().Min)
	} else {
		draw.Draw(out, rect, frame, frame.Bounds().Min, draw.Src)
	}
	return out
}
