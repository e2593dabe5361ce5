package pipeline

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/jimwhimpey/beforeafterify/pkg/compositor"
	"github.com/jimwhimpey/beforeafterify/pkg/layout"
)

// recordingEncoder captures the pair it was handed.
type recordingEncoder struct {
	calls int
	pair  FramePair
}

func (r *recordingEncoder) Encode(pair FramePair) ([]byte, error) {
	r.calls++
	r.pair = pair
	return []byte("encoded"), nil
}

type failingEncoder struct{}

func (failingEncoder) Encode(FramePair) ([]byte, error) {
	return nil, errors.New("encoder exploded")
}

func createTestImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

func newTestOrchestrator(t *testing.T, enc FrameEncoder) *Orchestrator {
	t.Helper()
	engine, err := layout.NewEngine()
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	return New(compositor.New(engine), enc)
}

func testLabels() (layout.LabelConfig, layout.LabelConfig) {
	l1 := layout.LabelConfig{
		Text: "before", X: 10, Y: 10, FontSize: 20, Padding: 4,
		Color:      color.NRGBA{255, 255, 255, 255},
		Background: color.NRGBA{0, 0, 0, 255}, BackgroundOpacity: 0.6,
	}
	l2 := l1
	l2.Text = "after"
	return l1, l2
}

func TestGenerateComparison(t *testing.T) {
	rec := &recordingEncoder{}
	o := newTestOrchestrator(t, rec)
	l1, l2 := testLabels()

	img1 := createTestImage(100, 100, color.NRGBA{200, 50, 50, 255})
	img2 := createTestImage(100, 100, color.NRGBA{50, 50, 200, 255})

	out, err := o.GenerateComparison(img1, img2, l1, l2, 500, 0)
	if err != nil {
		t.Fatalf("GenerateComparison failed: %v", err)
	}
	if string(out) != "encoded" {
		t.Errorf("unexpected output %q", out)
	}
	if rec.calls != 1 {
		t.Fatalf("encoder called %d times, want 1", rec.calls)
	}
	if rec.pair.Width() != 100 || rec.pair.Height() != 100 {
		t.Errorf("frame pair is %dx%d, want 100x100", rec.pair.Width(), rec.pair.Height())
	}
	if rec.pair.DelayMs != 500 || rec.pair.LoopCount != 0 {
		t.Errorf("timing %d/%d, want 500/0", rec.pair.DelayMs, rec.pair.LoopCount)
	}
	// Frame order is fixed: before-frame pixels keep the red-dominant tint.
	f0 := rec.pair.Frames[0].NRGBAAt(99, 0)
	f1 := rec.pair.Frames[1].NRGBAAt(99, 0)
	if f0.R < f0.B {
		t.Error("frame 1 should come from the first (red) image")
	}
	if f1.B < f1.R {
		t.Error("frame 2 should come from the second (blue) image")
	}
}

func TestDimensionMismatchRejectedBeforeCompositing(t *testing.T) {
	rec := &recordingEncoder{}
	o := newTestOrchestrator(t, rec)
	l1, l2 := testLabels()

	img1 := createTestImage(100, 100, color.NRGBA{A: 255})
	img2 := createTestImage(200, 150, color.NRGBA{A: 255})

	_, err := o.GenerateComparison(img1, img2, l1, l2, 500, 0)
	var mismatch *DimensionMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected DimensionMismatchError, got %v", err)
	}
	if mismatch.Width1 != 100 || mismatch.Height1 != 100 || mismatch.Width2 != 200 || mismatch.Height2 != 150 {
		t.Errorf("mismatch error carries %+v", mismatch)
	}
	if rec.calls != 0 {
		t.Error("encoder must not be called on dimension mismatch")
	}
}

func TestInvalidInputsRejected(t *testing.T) {
	o := newTestOrchestrator(t, &recordingEncoder{})
	l1, l2 := testLabels()
	img := createTestImage(50, 50, color.NRGBA{A: 255})

	if _, err := o.GenerateComparison(img, img, l1, l2, 0, 0); err == nil {
		t.Error("expected error for zero delay")
	}
	if _, err := o.GenerateComparison(img, img, l1, l2, 500, -1); err == nil {
		t.Error("expected error for negative loop count")
	}

	bad := l1
	bad.FontSize = -1
	if _, err := o.GenerateComparison(img, img, bad, l2, 500, 0); !errors.Is(err, layout.ErrInvalidLabel) {
		t.Errorf("expected ErrInvalidLabel, got %v", err)
	}
	if _, err := o.GenerateComparison(nil, img, l1, l2, 500, 0); err == nil {
		t.Error("expected error for nil image")
	}
}

func TestEncoderFailurePassedThrough(t *testing.T) {
	o := newTestOrchestrator(t, failingEncoder{})
	l1, l2 := testLabels()
	img := createTestImage(50, 50, color.NRGBA{A: 255})

	if _, err := o.GenerateComparison(img, img, l1, l2, 500, 0); err == nil {
		t.Error("expected encoder failure to surface")
	}
}
