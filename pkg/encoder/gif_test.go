package encoder

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"testing"

	"github.com/jimwhimpey/beforeafterify/pkg/pipeline"
)

func solidFrame(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

func testPair(w, h int) pipeline.FramePair {
	return pipeline.FramePair{
		Frames: [2]*image.NRGBA{
			solidFrame(w, h, color.NRGBA{255, 0, 0, 255}),
			solidFrame(w, h, color.NRGBA{0, 0, 255, 255}),
		},
		DelayMs:   500,
		LoopCount: 0,
	}
}

func TestEncodeTwoFrames(t *testing.T) {
	enc := NewGIF()
	out, err := enc.Encode(testPair(100, 100))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := gif.DecodeAll(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a decodable GIF: %v", err)
	}

	if len(decoded.Image) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(decoded.Image))
	}
	if decoded.Config.Width != 100 || decoded.Config.Height != 100 {
		t.Errorf("config is %dx%d, want 100x100", decoded.Config.Width, decoded.Config.Height)
	}
	if decoded.LoopCount != 0 {
		t.Errorf("loop count = %d, want 0 (infinite)", decoded.LoopCount)
	}
	for i, d := range decoded.Delay {
		if d != 50 {
			t.Errorf("frame %d delay = %d ticks, want 50 (500ms)", i, d)
		}
	}
}

func TestEncodeFrameOrder(t *testing.T) {
	enc := NewGIFWithOptions(Options{Dither: false})
	out, err := enc.Encode(testPair(20, 20))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := gif.DecodeAll(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	r0, _, b0, _ := decoded.Image[0].At(10, 10).RGBA()
	r1, _, b1, _ := decoded.Image[1].At(10, 10).RGBA()
	if r0 < b0 {
		t.Error("first frame should be the red (before) frame")
	}
	if b1 < r1 {
		t.Error("second frame should be the blue (after) frame")
	}
}

func TestEncodeMinimumDelay(t *testing.T) {
	enc := NewGIF()
	pair := testPair(10, 10)
	pair.DelayMs = 3

	out, err := enc.Encode(pair)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := gif.DecodeAll(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Delay[0] != 1 {
		t.Errorf("sub-tick delay should round up to 1 tick, got %d", decoded.Delay[0])
	}
}

func TestEncodeRejectsBadInput(t *testing.T) {
	enc := NewGIF()

	pair := testPair(10, 10)
	pair.Frames[1] = nil
	if _, err := enc.Encode(pair); err == nil {
		t.Error("expected error for missing frame")
	}

	pair = testPair(10, 10)
	pair.DelayMs = 0
	if _, err := enc.Encode(pair); err == nil {
		t.Error("expected error for zero delay")
	}

	pair = testPair(10, 10)
	pair.Frames[1] = solidFrame(20, 10, color.NRGBA{A: 255})
	if _, err := enc.Encode(pair); err == nil {
		t.Error("expected error for mismatched frame dimensions")
	}
}
