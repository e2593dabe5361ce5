package placement

import (
	"context"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/jimwhimpey/beforeafterify/pkg/assets"
	"github.com/jimwhimpey/beforeafterify/pkg/layout"
	"github.com/jimwhimpey/beforeafterify/pkg/types"
)

// fixedLocator always reports the same subject box.
type fixedLocator struct {
	box types.Box
}

func (f fixedLocator) Locate(context.Context, *assets.Asset) (types.Box, error) {
	return f.box, nil
}

func assetFrom(img image.Image) *assets.Asset {
	b := img.Bounds()
	return &assets.Asset{Image: img, Width: b.Dx(), Height: b.Dy(), Format: "png"}
}

func flatAsset(w, h int) *assets.Asset {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = 100
		img.Pix[i+1] = 100
		img.Pix[i+2] = 100
		img.Pix[i+3] = 255
	}
	return assetFrom(img)
}

func testLabel() layout.LabelConfig {
	return layout.LabelConfig{Text: "before", FontSize: 24, Padding: 4}
}

func TestSuggestAvoidsSubject(t *testing.T) {
	engine, err := layout.NewEngine()
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	// Subject fills the top-left quadrant; the label should land clear of it.
	planner := NewPlanner(fixedLocator{types.Box{X: 0, Y: 0, W: 0.5, H: 0.5}}, engine)

	a := flatAsset(600, 400)
	x, y, err := planner.Suggest(context.Background(), a, testLabel())
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}

	label := testLabel()
	label.X, label.Y = x, y
	b, err := engine.Layout(label, 600, 400, 1)
	if err != nil {
		t.Fatalf("Layout failed: %v", err)
	}

	if b.Left < 300 && b.Top < 200 {
		t.Errorf("suggested bounds %+v overlap the top-left subject quadrant", b)
	}
	if b.Left < 0 || b.Top < 0 || b.Right > 600 || b.Bottom > 400 {
		t.Errorf("suggested bounds %+v escape the surface", b)
	}
}

func TestSuggestValidatesLabel(t *testing.T) {
	engine, _ := layout.NewEngine()
	planner := NewPlanner(fixedLocator{types.Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5}}, engine)

	bad := testLabel()
	bad.FontSize = -1
	if _, _, err := planner.Suggest(context.Background(), flatAsset(100, 100), bad); err == nil {
		t.Error("expected validation error for bad label")
	}
}

func TestSaliencyLocatorFindsTexturedRegion(t *testing.T) {
	// Flat gray image with a noisy bright block in the top-left quadrant.
	img := image.NewNRGBA(image.Rect(0, 0, 240, 240))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = 80
		img.Pix[i+1] = 80
		img.Pix[i+2] = 80
		img.Pix[i+3] = 255
	}
	rng := rand.New(rand.NewSource(1))
	for y := 20; y < 100; y++ {
		for x := 20; x < 100; x++ {
			v := uint8(rng.Intn(256))
			img.SetNRGBA(x, y, color.NRGBA{v, v, v, 255})
		}
	}

	box, err := NewSaliencyLocator().Locate(context.Background(), assetFrom(img))
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}

	// The detected box must cover the center of the textured block.
	cx, cy := 60.0/240, 60.0/240
	if cx < box.X || cx > box.X+box.W || cy < box.Y || cy > box.Y+box.H {
		t.Errorf("box %+v does not cover the textured region center", box)
	}
	// And it should not be the whole-image fallback.
	if box.W > 0.9 && box.H > 0.9 {
		t.Errorf("box %+v looks like a whole-image fallback", box)
	}
}

func TestSaliencyLocatorFlatImageFallsBack(t *testing.T) {
	box, err := NewSaliencyLocator().Locate(context.Background(), flatAsset(100, 100))
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if box.Empty() {
		t.Errorf("expected a non-empty fallback box, got %+v", box)
	}
}
