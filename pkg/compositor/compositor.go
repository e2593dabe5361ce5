// Package compositor renders finished frames: a background image with a label
// background rectangle and label text drawn over it.
package compositor

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/jimwhimpey/beforeafterify/pkg/layout"
)

// Compositor draws labels onto backgrounds through a shared layout engine, so
// frame geometry always matches what the layout engine reported for previews.
type Compositor struct {
	engine *layout.Engine
}

// New creates a Compositor over the given layout engine.
func New(engine *layout.Engine) *Compositor {
	return &Compositor{engine: engine}
}

// RenderFrame composites one full-resolution output frame: the background at
// origin, the label's background rectangle at its configured opacity, then the
// label text. The input image is never mutated; identical inputs produce
// byte-identical output.
func (c *Compositor) RenderFrame(background image.Image, label layout.LabelConfig) (*image.NRGBA, error) {
	return c.render(background, label, 1)
}

// RenderPreviewFrame composites a preview frame onto an already-scaled
// background. It runs the same layout path as RenderFrame, only at the
// preview's scale.
func (c *Compositor) RenderPreviewFrame(background image.Image, label layout.LabelConfig, scale float64) (*image.NRGBA, error) {
	return c.render(background, label, scale)
}

func (c *Compositor) render(background image.Image, label layout.LabelConfig, scale float64) (*image.NRGBA, error) {
	if background == nil {
		return nil, fmt.Errorf("nil background image")
	}
	if err := label.Validate(); err != nil {
		return nil, err
	}

	dst := imaging.Clone(background)
	bounds := dst.Bounds()
	w, h := float64(bounds.Dx()), float64(bounds.Dy())

	place, err := c.engine.Place(label, w, h, scale)
	if err != nil {
		return nil, err
	}

	if label.BackgroundOpacity > 0 {
		fillRect(dst, place.Bounds, label.Background, label.BackgroundOpacity)
	}

	if label.Text != "" {
		if err := c.engine.DrawText(dst, label.Text, label.FontSize*scale, label.Color, place.TextLeft, place.Baseline); err != nil {
			return nil, fmt.Errorf("failed to draw label text: %w", err)
		}
	}

	return dst, nil
}

// fillRect blends col over the rectangle b at the given opacity using
// source-over compositing on non-premultiplied pixels.
func fillRect(img *image.NRGBA, b layout.Bounds, col color.NRGBA, opacity float64) {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()

	x0 := clampInt(int(math.Round(b.Left)), 0, w)
	y0 := clampInt(int(math.Round(b.Top)), 0, h)
	x1 := clampInt(int(math.Round(b.Right)), 0, w)
	y1 := clampInt(int(math.Round(b.Bottom)), 0, h)
	if x1 <= x0 || y1 <= y0 {
		return
	}

	alpha := opacity * float64(col.A) / 255
	if alpha <= 0 {
		return
	}
	if alpha > 1 {
		alpha = 1
	}
	sr := float64(col.R)
	sg := float64(col.G)
	sb := float64(col.B)

	for y := y0; y < y1; y++ {
		i := y*img.Stride + x0*4
		for x := x0; x < x1; x++ {
			img.Pix[i+0] = blend(sr, float64(img.Pix[i+0]), alpha)
			img.Pix[i+1] = blend(sg, float64(img.Pix[i+1]), alpha)
			img.Pix[i+2] = blend(sb, float64(img.Pix[i+2]), alpha)
			da := float64(img.Pix[i+3]) / 255
			img.Pix[i+3] = uint8(math.Round((alpha + da*(1-alpha)) * 255))
			i += 4
		}
	}
}

func blend(src, dst, alpha float64) uint8 {
	return uint8(math.Round(src*alpha + dst*(1-alpha)))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
