package pipeline_test

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"testing"

	"github.com/jimwhimpey/beforeafterify/pkg/compositor"
	"github.com/jimwhimpey/beforeafterify/pkg/encoder"
	"github.com/jimwhimpey/beforeafterify/pkg/layout"
	"github.com/jimwhimpey/beforeafterify/pkg/pipeline"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

// Full sequence against the real GIF encoder: two 100x100 images with
// "before"/"after" labels at identical positions become a two-frame 100x100
// looping GIF.
func TestGenerateComparisonEndToEnd(t *testing.T) {
	engine, err := layout.NewEngine()
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	o := pipeline.New(compositor.New(engine), encoder.NewGIF())

	l1 := layout.LabelConfig{
		Text: "before", X: 10, Y: 10, FontSize: 20, Padding: 4,
		Color:      color.NRGBA{255, 255, 255, 255},
		Background: color.NRGBA{0, 0, 0, 255}, BackgroundOpacity: 0.6,
	}
	l2 := l1
	l2.Text = "after"

	out, err := o.GenerateComparison(
		solid(100, 100, color.NRGBA{180, 60, 60, 255}),
		solid(100, 100, color.NRGBA{60, 60, 180, 255}),
		l1, l2, 500, 0)
	if err != nil {
		t.Fatalf("GenerateComparison failed: %v", err)
	}

	decoded, err := gif.DecodeAll(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a decodable GIF: %v", err)
	}
	if len(decoded.Image) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(decoded.Image))
	}
	if decoded.Config.Width != 100 || decoded.Config.Height != 100 {
		t.Errorf("GIF is %dx%d, want 100x100", decoded.Config.Width, decoded.Config.Height)
	}
	if decoded.LoopCount != 0 {
		t.Errorf("loop count = %d, want 0 (infinite)", decoded.LoopCount)
	}
	if decoded.Delay[0] != 50 || decoded.Delay[1] != 50 {
		t.Errorf("delays = %v ticks, want [50 50]", decoded.Delay)
	}

	// An untouched corner pixel keeps each source image's dominant channel.
	r0, _, b0, _ := decoded.Image[0].At(99, 99).RGBA()
	r1, _, b1, _ := decoded.Image[1].At(99, 99).RGBA()
	if r0 < b0 {
		t.Error("frame 1 should come from the before (red) image")
	}
	if b1 < r1 {
		t.Error("frame 2 should come from the after (blue) image")
	}
}
