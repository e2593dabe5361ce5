// Package layout resolves a label's logical position into on-surface pixel
// geometry. The same code path produces geometry for a scaled preview and for
// the full-resolution render, which keeps the two views consistent.
package layout

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/jimwhimpey/beforeafterify/pkg/geometry"
)

// ErrInvalidLabel is wrapped by all label validation failures.
var ErrInvalidLabel = errors.New("invalid label")

// LabelConfig describes one label's text, appearance, and placement. X and Y
// are the logical top-left of the text box in full-resolution image pixels;
// scaled preview coordinates are a transient view and are never stored here.
type LabelConfig struct {
	Text              string      `json:"text"`
	X                 float64     `json:"x"`
	Y                 float64     `json:"y"`
	FontSize          float64     `json:"fontSize"`
	Color             color.NRGBA `json:"-"`
	Background        color.NRGBA `json:"-"`
	BackgroundOpacity float64     `json:"backgroundOpacity"`
	Padding           float64     `json:"padding"`
}

// Validate checks the label's fields before any geometry is derived from them.
func (l LabelConfig) Validate() error {
	if l.FontSize <= 0 {
		return fmt.Errorf("%w: font size %v must be positive", ErrInvalidLabel, l.FontSize)
	}
	if l.Padding < 0 {
		return fmt.Errorf("%w: padding %v must be non-negative", ErrInvalidLabel, l.Padding)
	}
	if l.BackgroundOpacity < 0 || l.BackgroundOpacity > 1 {
		return fmt.Errorf("%w: background opacity %v must be in [0,1]", ErrInvalidLabel, l.BackgroundOpacity)
	}
	return nil
}

// Bounds is the rectangle a label's background box occupies on a particular
// surface, in that surface's pixel space. It is recomputed on every query and
// never persisted.
type Bounds struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// Width returns the horizontal extent of the bounds.
func (b Bounds) Width() float64 { return b.Right - b.Left }

// Height returns the vertical extent of the bounds.
func (b Bounds) Height() float64 { return b.Bottom - b.Top }

// Contains reports whether the point (x, y) lies within the bounds, edges
// included.
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.Left && x <= b.Right && y >= b.Top && y <= b.Bottom
}

// Placement is the fully resolved geometry for drawing a label: its bounds
// plus the clamped text origin and baseline.
type Placement struct {
	Bounds   Bounds
	TextLeft float64 // clamped left edge of the text itself (inside the padding)
	TextTop  float64 // clamped top edge of the text itself
	Baseline float64 // TextTop + ascent, where the drawer's dot goes
}

// Engine measures and positions labels using a single parsed font. A shared
// Engine is safe for concurrent use; face construction and glyph access are
// serialized internally.
type Engine struct {
	font *opentype.Font

	mu    sync.Mutex
	faces map[int32]font.Face // keyed by size in 26.6 fixed point
}

// NewEngine creates an Engine backed by the embedded Go Regular font.
func NewEngine() (*Engine, error) {
	return NewEngineWithFont(goregular.TTF)
}

// NewEngineWithFont creates an Engine from raw TTF/OTF data.
func NewEngineWithFont(data []byte) (*Engine, error) {
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return &Engine{font: parsed, faces: make(map[int32]font.Face)}, nil
}

// face returns a cached font.Face for the given pixel size. Hinting is off so
// that measurements scale linearly between preview and full resolution.
// Callers must hold e.mu while using the returned face.
func (e *Engine) face(size float64) (font.Face, error) {
	key := int32(size*64 + 0.5)
	if f, ok := e.faces[key]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(e.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	e.faces[key] = f
	return f, nil
}

// Measure returns the footprint of text at the given pixel size. Empty text
// has a zero footprint.
func (e *Engine) Measure(text string, size float64) (geometry.Footprint, error) {
	if text == "" {
		return geometry.Footprint{}, nil
	}
	if size <= 0 {
		return geometry.Footprint{}, fmt.Errorf("%w: font size %v must be positive", ErrInvalidLabel, size)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	face, err := e.face(size)
	if err != nil {
		return geometry.Footprint{}, err
	}

	width := font.MeasureString(face, text)
	metrics := face.Metrics()
	return geometry.Footprint{
		Width:   fixedToFloat(width),
		Ascent:  fixedToFloat(metrics.Ascent),
		Descent: fixedToFloat(metrics.Descent),
	}, nil
}

// Layout computes the bounds the label's background rectangle occupies on a
// surface of the given dimensions at the given scale. The candidate position
// x*scale, y*scale is clamped so the rectangle stays inside the surface; when
// the rectangle is larger than the surface the position clamps to zero and the
// label overflows on the right/bottom edge.
func (e *Engine) Layout(label LabelConfig, surfaceWidth, surfaceHeight, scale float64) (Bounds, error) {
	p, err := e.Place(label, surfaceWidth, surfaceHeight, scale)
	if err != nil {
		return Bounds{}, err
	}
	return p.Bounds, nil
}

// Place computes the full drawing geometry for a label. Layout is the
// bounds-only view of the same computation.
func (e *Engine) Place(label LabelConfig, surfaceWidth, surfaceHeight, scale float64) (Placement, error) {
	if err := label.Validate(); err != nil {
		return Placement{}, err
	}
	if scale <= 0 {
		return Placement{}, fmt.Errorf("%w: scale %v must be positive", ErrInvalidLabel, scale)
	}

	fp, err := e.Measure(label.Text, label.FontSize*scale)
	if err != nil {
		return Placement{}, err
	}

	textWidth := fp.Width
	textHeight := fp.TotalHeight()
	pad := label.Padding * scale

	x := geometry.Clamp(label.X*scale, 0, surfaceWidth-textWidth-2*pad)
	y := geometry.Clamp(label.Y*scale, 0, surfaceHeight-textHeight-2*pad)

	return Placement{
		Bounds: Bounds{
			Left:   x - pad,
			Top:    y - pad,
			Right:  x + textWidth + pad,
			Bottom: y + textHeight + pad,
		},
		TextLeft: x,
		TextTop:  y,
		Baseline: y + fp.Ascent,
	}, nil
}

// HitTest reports whether the surface-space point (px, py) falls within the
// label's bounds on a surface of the given dimensions and scale.
func (e *Engine) HitTest(label LabelConfig, surfaceWidth, surfaceHeight, scale, px, py float64) (bool, error) {
	b, err := e.Layout(label, surfaceWidth, surfaceHeight, scale)
	if err != nil {
		return false, err
	}
	return b.Contains(px, py), nil
}

// DrawText renders a single line of text onto dst with its baseline dot at
// (x, y) in dst's coordinate space.
func (e *Engine) DrawText(dst draw.Image, text string, size float64, c color.Color, x, y float64) error {
	if text == "" {
		return nil
	}
	if size <= 0 {
		return fmt.Errorf("%w: font size %v must be positive", ErrInvalidLabel, size)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	face, err := e.face(size)
	if err != nil {
		return err
	}

	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: floatToFixed(x), Y: floatToFixed(y)},
	}
	drawer.DrawString(text)
	return nil
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v*64 + 0.5)
}
