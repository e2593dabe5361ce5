package layout

import (
	"errors"
	"image/color"
	"math"
	"testing"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine()
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	return e
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		label   LabelConfig
		wantErr bool
	}{
		{"valid", LabelConfig{Text: "before", FontSize: 20, Padding: 4, BackgroundOpacity: 0.5}, false},
		{"zero font size", LabelConfig{Text: "x", FontSize: 0}, true},
		{"negative font size", LabelConfig{Text: "x", FontSize: -12}, true},
		{"negative padding", LabelConfig{Text: "x", FontSize: 20, Padding: -1}, true},
		{"opacity above one", LabelConfig{Text: "x", FontSize: 20, BackgroundOpacity: 1.5}, true},
		{"opacity below zero", LabelConfig{Text: "x", FontSize: 20, BackgroundOpacity: -0.1}, true},
		{"empty text is fine", LabelConfig{FontSize: 20}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.label.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidLabel) {
				t.Errorf("expected ErrInvalidLabel, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestMeasureEmptyText(t *testing.T) {
	e := newTestEngine(t)
	fp, err := e.Measure("", 20)
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}
	if !fp.Empty() {
		t.Errorf("expected empty footprint for empty text, got %+v", fp)
	}
}

func TestLayoutWithinSurface(t *testing.T) {
	e := newTestEngine(t)
	label := LabelConfig{Text: "before", X: 10, Y: 10, FontSize: 20, Padding: 4}

	b, err := e.Layout(label, 500, 400, 1)
	if err != nil {
		t.Fatalf("Layout failed: %v", err)
	}

	if b.Left < 0 || b.Top < 0 || b.Right > 500 || b.Bottom > 400 {
		t.Errorf("bounds %+v escape a 500x400 surface", b)
	}
	if b.Width() <= 0 || b.Height() <= 0 {
		t.Errorf("bounds %+v have non-positive extent", b)
	}
}

func TestLayoutClampsToFarEdge(t *testing.T) {
	e := newTestEngine(t)
	label := LabelConfig{Text: "after", X: 10000, Y: 10000, FontSize: 20, Padding: 4}

	b, err := e.Layout(label, 500, 400, 1)
	if err != nil {
		t.Fatalf("Layout failed: %v", err)
	}

	if b.Right > 500+1e-9 || b.Bottom > 400+1e-9 {
		t.Errorf("bounds %+v not clamped to the far edge", b)
	}
}

func TestLayoutOverflowClampsToZero(t *testing.T) {
	e := newTestEngine(t)
	// The text is wider than the whole surface; the position clamps to zero
	// and the label overflows on the right rather than going negative.
	label := LabelConfig{Text: "overflow", X: 95, Y: 95, FontSize: 60}

	b, err := e.Layout(label, 100, 100, 1)
	if err != nil {
		t.Fatalf("Layout failed: %v", err)
	}

	if b.Left != 0 || b.Top != 0 {
		t.Errorf("expected overflowing bounds to start at (0,0), got (%v,%v)", b.Left, b.Top)
	}
	if b.Right <= 100 {
		t.Errorf("expected the label to overflow the right edge, got right=%v", b.Right)
	}
	if math.IsNaN(b.Left) || math.IsNaN(b.Top) || math.IsNaN(b.Right) || math.IsNaN(b.Bottom) {
		t.Errorf("bounds contain NaN: %+v", b)
	}
}

func TestLayoutScaleConsistency(t *testing.T) {
	e := newTestEngine(t)
	label := LabelConfig{Text: "before", X: 40, Y: 30, FontSize: 20, Padding: 4}

	full, err := e.Layout(label, 600, 400, 1)
	if err != nil {
		t.Fatalf("Layout at scale 1 failed: %v", err)
	}

	for _, scale := range []float64{0.25, 0.5, 0.75} {
		preview, err := e.Layout(label, 600*scale, 400*scale, scale)
		if err != nil {
			t.Fatalf("Layout at scale %v failed: %v", scale, err)
		}

		const tolerance = 2.0 // fixed-point rounding in text measurement
		pairs := [][2]float64{
			{preview.Left, full.Left * scale},
			{preview.Top, full.Top * scale},
			{preview.Right, full.Right * scale},
			{preview.Bottom, full.Bottom * scale},
		}
		for i, p := range pairs {
			if math.Abs(p[0]-p[1]) > tolerance {
				t.Errorf("scale %v edge %d: preview %v vs scaled full %v", scale, i, p[0], p[1])
			}
		}
	}
}

func TestLayoutInvalidInputs(t *testing.T) {
	e := newTestEngine(t)

	if _, err := e.Layout(LabelConfig{Text: "x", FontSize: -1}, 100, 100, 1); !errors.Is(err, ErrInvalidLabel) {
		t.Errorf("expected ErrInvalidLabel for bad font size, got %v", err)
	}
	if _, err := e.Layout(LabelConfig{Text: "x", FontSize: 20}, 100, 100, 0); !errors.Is(err, ErrInvalidLabel) {
		t.Errorf("expected ErrInvalidLabel for zero scale, got %v", err)
	}
}

func TestHitTest(t *testing.T) {
	e := newTestEngine(t)
	label := LabelConfig{Text: "before", X: 50, Y: 50, FontSize: 20, Padding: 4}

	b, err := e.Layout(label, 500, 400, 1)
	if err != nil {
		t.Fatalf("Layout failed: %v", err)
	}

	cx := (b.Left + b.Right) / 2
	cy := (b.Top + b.Bottom) / 2
	hit, err := e.HitTest(label, 500, 400, 1, cx, cy)
	if err != nil {
		t.Fatalf("HitTest failed: %v", err)
	}
	if !hit {
		t.Errorf("expected hit at center (%v,%v) of %+v", cx, cy, b)
	}

	outside := [][2]float64{
		{b.Left - 1, cy},
		{b.Right + 1, cy},
		{cx, b.Top - 1},
		{cx, b.Bottom + 1},
	}
	for _, pt := range outside {
		hit, err := e.HitTest(label, 500, 400, 1, pt[0], pt[1])
		if err != nil {
			t.Fatalf("HitTest failed: %v", err)
		}
		if hit {
			t.Errorf("expected miss at (%v,%v) one unit outside %+v", pt[0], pt[1], b)
		}
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#ffffff", color.NRGBA{255, 255, 255, 255}, false},
		{"000000", color.NRGBA{0, 0, 0, 255}, false},
		{"#ff000080", color.NRGBA{255, 0, 0, 128}, false},
		{"#f0a", color.NRGBA{255, 0, 170, 255}, false},
		{"#12345", color.NRGBA{}, true},
		{"#gggggg", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		got, err := ParseHexColor(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseHexColor(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseHexColor(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHexColor(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
