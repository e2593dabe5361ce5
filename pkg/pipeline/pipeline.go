// Package pipeline validates and sequences a comparison generation: two
// equal-dimension images are composited with their labels and handed to a
// frame encoder as a fixed-order frame pair.
package pipeline

import (
	"fmt"
	"image"

	"github.com/jimwhimpey/beforeafterify/pkg/compositor"
	"github.com/jimwhimpey/beforeafterify/pkg/layout"
)

// FramePair holds the two fully composited frames plus the shared timing
// parameters. Frame order is significant: Frames[0] always plays first.
type FramePair struct {
	Frames    [2]*image.NRGBA
	DelayMs   int
	LoopCount int // 0 means loop forever
}

// Width returns the pixel width of the frames.
func (p FramePair) Width() int {
	if p.Frames[0] == nil {
		return 0
	}
	return p.Frames[0].Bounds().Dx()
}

// Height returns the pixel height of the frames.
func (p FramePair) Height() int {
	if p.Frames[0] == nil {
		return 0
	}
	return p.Frames[0].Bounds().Dy()
}

// FrameEncoder turns a frame pair into an encoded animation byte stream.
type FrameEncoder interface {
	Encode(pair FramePair) ([]byte, error)
}

// DimensionMismatchError reports that the two input images differ in size.
type DimensionMismatchError struct {
	Width1, Height1 int
	Width2, Height2 int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("image dimensions do not match: %dx%d vs %dx%d",
		e.Width1, e.Height1, e.Width2, e.Height2)
}

// Orchestrator runs the generation sequence. Each call owns its own frames
// and output buffer, so independent requests may run concurrently.
type Orchestrator struct {
	compositor *compositor.Compositor
	encoder    FrameEncoder
}

// New creates an Orchestrator over a compositor and a frame encoder.
func New(c *compositor.Compositor, enc FrameEncoder) *Orchestrator {
	return &Orchestrator{compositor: c, encoder: enc}
}

// GenerateComparison validates the two images, composites the two frames in
// order, and delegates to the encoder. No partial output is produced: a
// dimension mismatch or invalid label fails before any compositing, and
// encoder failures surface unmodified.
func (o *Orchestrator) GenerateComparison(img1, img2 image.Image, label1, label2 layout.LabelConfig, delayMs, loopCount int) ([]byte, error) {
	if img1 == nil || img2 == nil {
		return nil, fmt.Errorf("both input images are required")
	}
	b1, b2 := img1.Bounds(), img2.Bounds()
	if b1.Dx() != b2.Dx() || b1.Dy() != b2.Dy() {
		return nil, &DimensionMismatchError{
			Width1: b1.Dx(), Height1: b1.Dy(),
			Width2: b2.Dx(), Height2: b2.Dy(),
		}
	}

	if delayMs <= 0 {
		return nil, fmt.Errorf("frame delay %dms must be positive", delayMs)
	}
	if loopCount < 0 {
		return nil, fmt.Errorf("loop count %d must be non-negative", loopCount)
	}
	if err := label1.Validate(); err != nil {
		return nil, fmt.Errorf("label 1: %w", err)
	}
	if err := label2.Validate(); err != nil {
		return nil, fmt.Errorf("label 2: %w", err)
	}

	frame1, err := o.compositor.RenderFrame(img1, label1)
	if err != nil {
		return nil, fmt.Errorf("failed to composite frame 1: %w", err)
	}
	frame2, err := o.compositor.RenderFrame(img2, label2)
	if err != nil {
		return nil, fmt.Errorf("failed to composite frame 2: %w", err)
	}

	out, err := o.encoder.Encode(FramePair{
		Frames:    [2]*image.NRGBA{frame1, frame2},
		DelayMs:   delayMs,
		LoopCount: loopCount,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode frames: %w", err)
	}
	return out, nil
}
