// Package beforeafterify turns a pair of before/after images into a looping
// two-frame comparison GIF with positioned text labels.
//
// Labels are specified in the full-resolution pixel space of the input images.
// The same layout engine that renders the final frames also backs the preview
// and drag interactions, so a label placed on a scaled-down preview lands in
// exactly the same spot on the output.
//
// Basic usage:
//
//	package main
//
//	import (
//		"log"
//
//		"github.com/jimwhimpey/beforeafterify"
//		"github.com/jimwhimpey/beforeafterify/pkg/layout"
//	)
//
//	func main() {
//		app, err := beforeafterify.New()
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		label1, _ := app.DefaultLabel("before", 16, 16)
//		label2, _ := app.DefaultLabel("after", 16, 16)
//
//		if err := app.GenerateFiles("kitchen_old.jpg", "kitchen_new.jpg", "kitchen.gif", label1, label2); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The package consists of these main components:
//
// 1. Layout (pkg/layout): text measurement, clamping, and label placement
// 2. Compositor (pkg/compositor): draws a label over a background frame
// 3. Pipeline (pkg/pipeline): validates a frame pair and drives encoding
// 4. Encoder (pkg/encoder): two-frame looping GIF output
// 5. Interaction (pkg/interaction): drag state machine for preview editing
// 6. Placement (pkg/placement): optional subject-aware label positioning
package beforeafterify

import (
	"fmt"
	"os"

	"github.com/jimwhimpey/beforeafterify/internal/config"
	"github.com/jimwhimpey/beforeafterify/pkg/assets"
	"github.com/jimwhimpey/beforeafterify/pkg/compositor"
	"github.com/jimwhimpey/beforeafterify/pkg/encoder"
	"github.com/jimwhimpey/beforeafterify/pkg/layout"
	"github.com/jimwhimpey/beforeafterify/pkg/pipeline"
)

// Version of the beforeafterify library
const Version = "1.0.0"

// App provides a high-level interface for generating comparison GIFs.
type App struct {
	cfg    *config.Config
	engine *layout.Engine
	loader *assets.Loader
	orch   *pipeline.Orchestrator
}

// New creates an App with the default configuration.
func New() (*App, error) {
	return NewWithConfig(config.Default())
}

// NewWithConfig creates an App with a custom configuration.
func NewWithConfig(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	engine, err := layout.NewEngine()
	if err != nil {
		return nil, err
	}
	comp := compositor.New(engine)
	enc := encoder.NewGIFWithOptions(encoder.Options{Dither: cfg.Encode.Dither})

	return &App{
		cfg:    cfg,
		engine: engine,
		loader: assets.NewLoader(),
		orch:   pipeline.New(comp, enc),
	}, nil
}

// Engine exposes the layout engine, for callers that want to run previews or
// hit testing with the same font metrics used for rendering.
func (a *App) Engine() *layout.Engine {
	return a.engine
}

// DefaultLabel builds a label at (x, y) styled with the configured defaults.
func (a *App) DefaultLabel(text string, x, y float64) (layout.LabelConfig, error) {
	rc := a.cfg.Render
	label := layout.LabelConfig{
		Text:              text,
		X:                 x,
		Y:                 y,
		FontSize:          rc.FontSize,
		Padding:           rc.Padding,
		BackgroundOpacity: rc.BackgroundOpacity,
	}

	var err error
	if label.Color, err = layout.ParseHexColor(rc.TextColor); err != nil {
		return label, err
	}
	if label.Background, err = layout.ParseHexColor(rc.BackgroundColor); err != nil {
		return label, err
	}
	return label, nil
}

// Generate composites the two labeled frames and returns the encoded GIF.
func (a *App) Generate(before, after *assets.Asset, label1, label2 layout.LabelConfig) ([]byte, error) {
	if !assets.SameSize(before, after) {
		return nil, &pipeline.DimensionMismatchError{
			Width1: before.Width, Height1: before.Height,
			Width2: after.Width, Height2: after.Height,
		}
	}
	return a.orch.GenerateComparison(before.Image, after.Image, label1, label2, a.cfg.Encode.DelayMs, a.cfg.Encode.LoopCount)
}

// GenerateFiles loads the two images from disk or URLs and writes the
// comparison GIF to outPath.
func (a *App) GenerateFiles(beforeSource, afterSource, outPath string, label1, label2 layout.LabelConfig) error {
	before, err := a.loader.FromSource(beforeSource)
	if err != nil {
		return fmt.Errorf("failed to load before image: %w", err)
	}
	after, err := a.loader.FromSource(afterSource)
	if err != nil {
		return fmt.Errorf("failed to load after image: %w", err)
	}

	data, err := a.Generate(before, after, label1, label2)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, data, 0o644)
}
