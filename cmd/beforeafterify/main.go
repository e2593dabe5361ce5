package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/image/font/gofont/gobold"

	"github.com/jimwhimpey/beforeafterify/internal/config"
	"github.com/jimwhimpey/beforeafterify/internal/server"
	"github.com/jimwhimpey/beforeafterify/internal/utils"
	"github.com/jimwhimpey/beforeafterify/pkg/assets"
	"github.com/jimwhimpey/beforeafterify/pkg/client"
	"github.com/jimwhimpey/beforeafterify/pkg/compositor"
	"github.com/jimwhimpey/beforeafterify/pkg/encoder"
	"github.com/jimwhimpey/beforeafterify/pkg/layout"
	"github.com/jimwhimpey/beforeafterify/pkg/llamacpp"
	"github.com/jimwhimpey/beforeafterify/pkg/ollama"
	"github.com/jimwhimpey/beforeafterify/pkg/pipeline"
	"github.com/jimwhimpey/beforeafterify/pkg/placement"
)

func main() {
	var before, after, out string
	var text1, text2 string
	var x1, y1, x2, y2 float64
	var fontSize, padding, bgOpacity float64
	var textColor, bgColor string
	var delay, loop int
	var smart bool
	var backend, model, url string
	var serve, bold bool
	var addr, configPath string

	flag.StringVar(&before, "before", "", "before image path or URL (jpg/png/webp/gif)")
	flag.StringVar(&after, "after", "", "after image path or URL (same dimensions as -before)")
	flag.StringVar(&out, "out", "", "output GIF path (default: <before>_comparison.gif)")

	flag.StringVar(&text1, "text1", "before", "label text for the first frame")
	flag.StringVar(&text2, "text2", "after", "label text for the second frame")
	flag.Float64Var(&x1, "x1", 16, "first label x position (full-resolution pixels)")
	flag.Float64Var(&y1, "y1", 16, "first label y position")
	flag.Float64Var(&x2, "x2", 16, "second label x position")
	flag.Float64Var(&y2, "y2", 16, "second label y position")

	flag.Float64Var(&fontSize, "size", 0, "label font size in points (0 = config default)")
	flag.Float64Var(&padding, "padding", -1, "label background padding in pixels (-1 = config default)")
	flag.StringVar(&textColor, "color", "", "label text color, hex (default from config)")
	flag.StringVar(&bgColor, "bg", "", "label background color, hex (default from config)")
	flag.Float64Var(&bgOpacity, "bgopacity", -1, "label background opacity 0..1 (-1 = config default)")
	flag.BoolVar(&bold, "bold", false, "render labels with the bold font")

	flag.IntVar(&delay, "delay", 0, "frame delay in milliseconds (0 = config default)")
	flag.IntVar(&loop, "loop", -1, "loop count, 0=forever (-1 = config default)")

	flag.BoolVar(&smart, "smart", false, "pick label positions automatically, away from the subject")
	flag.StringVar(&backend, "backend", "", "smart placement backend: local, ollama or llamacpp (default from config)")
	flag.StringVar(&model, "model", "", "vision model name for ollama/llamacpp backends")
	flag.StringVar(&url, "url", "", "vision server URL (defaults: ollama=http://localhost:11434, llamacpp=http://localhost:8080)")

	flag.BoolVar(&serve, "serve", false, "run the HTTP server instead of generating a file")
	flag.StringVar(&addr, "addr", "", "listen address for -serve (default from config)")
	flag.StringVar(&configPath, "config", "", "config file path (default: "+config.GetConfigPath()+")")

	flag.Parse()

	cfg := loadConfig(configPath)
	applyFlags(cfg, bold, delay, loop, backend, model, url, addr)

	engine, err := newEngine(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize font engine: %v", err)
	}
	comp := compositor.New(engine)
	orch := pipeline.New(comp, encoder.NewGIFWithOptions(encoder.Options{Dither: cfg.Encode.Dither}))

	var planner *placement.Planner
	if smart || serve {
		planner, err = newPlanner(cfg, engine)
		if err != nil {
			log.Fatalf("Failed to initialize placement backend: %v", err)
		}
	}

	if serve {
		srv := server.New(cfg, engine, comp, orch, planner)
		defer srv.Close()
		log.Fatal(srv.ListenAndServe())
	}

	if before == "" || after == "" {
		log.Fatalf("usage: %s -before first.jpg|URL -after second.jpg|URL [-out result.gif] [-smart] [-serve]", filepath.Base(os.Args[0]))
	}

	for _, in := range []string{before, after} {
		if utils.FileExists(in) && !utils.IsImageFile(in) {
			log.Fatalf("%s does not look like an image file (expected jpg/png/webp/gif)", in)
		}
	}

	loader := assets.NewLoader()
	beforeAsset, err := loader.FromSource(before)
	if err != nil {
		log.Fatalf("Failed to load before image: %v", err)
	}
	afterAsset, err := loader.FromSource(after)
	if err != nil {
		log.Fatalf("Failed to load after image: %v", err)
	}

	label1, err := buildLabel(cfg, text1, x1, y1, fontSize, padding, bgOpacity, textColor, bgColor)
	if err != nil {
		log.Fatalf("Invalid label: %v", err)
	}
	label2, err := buildLabel(cfg, text2, x2, y2, fontSize, padding, bgOpacity, textColor, bgColor)
	if err != nil {
		log.Fatalf("Invalid label: %v", err)
	}

	if smart {
		ctx := context.Background()
		if label1.X, label1.Y, err = planner.Suggest(ctx, beforeAsset, label1); err != nil {
			log.Fatalf("Smart placement failed: %v", err)
		}
		if label2.X, label2.Y, err = planner.Suggest(ctx, afterAsset, label2); err != nil {
			log.Fatalf("Smart placement failed: %v", err)
		}
		log.Printf("placed labels at (%.0f,%.0f) and (%.0f,%.0f)", label1.X, label1.Y, label2.X, label2.Y)
	}

	data, err := orch.GenerateComparison(beforeAsset.Image, afterAsset.Image, label1, label2, cfg.Encode.DelayMs, cfg.Encode.LoopCount)
	if err != nil {
		log.Fatalf("Failed to generate comparison: %v", err)
	}

	if out == "" {
		out = utils.DeriveOutputPath(before)
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := utils.EnsureDir(dir); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}
	fmt.Printf("wrote %s (%d bytes)\n", out, len(data))
}

func loadConfig(path string) *config.Config {
	if path == "" {
		path = config.GetConfigPath()
		if !utils.FileExists(path) {
			return config.Default()
		}
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		log.Fatalf("Failed to load config %s: %v", path, err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config %s: %v", path, err)
	}
	return cfg
}

// applyFlags folds explicitly set command-line values into the loaded config.
func applyFlags(cfg *config.Config, bold bool, delay, loop int, backend, model, url, addr string) {
	if bold {
		cfg.Render.BoldFont = true
	}
	if delay > 0 {
		cfg.Encode.DelayMs = delay
	}
	if loop >= 0 {
		cfg.Encode.LoopCount = loop
	}
	if backend != "" {
		cfg.Placement.Backend = backend
	}
	if model != "" {
		cfg.Placement.Model = model
	}
	if url != "" {
		cfg.Placement.URL = url
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
}

func newEngine(cfg *config.Config) (*layout.Engine, error) {
	if cfg.Render.BoldFont {
		return layout.NewEngineWithFont(gobold.TTF)
	}
	return layout.NewEngine()
}

func newPlanner(cfg *config.Config, engine *layout.Engine) (*placement.Planner, error) {
	switch cfg.Placement.Backend {
	case "local":
		return placement.NewPlanner(placement.NewSaliencyLocator(), engine), nil
	case "ollama":
		url := cfg.Placement.URL
		if url == "" {
			url = "http://localhost:11434"
		}
		c, err := ollama.NewClient(url)
		if err != nil {
			return nil, err
		}
		return newModelPlanner(c, cfg, engine), nil
	case "llamacpp":
		url := cfg.Placement.URL
		if url == "" {
			url = "http://localhost:8080"
		}
		c, err := llamacpp.NewClient(url)
		if err != nil {
			return nil, err
		}
		return newModelPlanner(c, cfg, engine), nil
	default:
		return nil, fmt.Errorf("unknown placement backend %q (use 'local', 'ollama' or 'llamacpp')", cfg.Placement.Backend)
	}
}

func newModelPlanner(c client.VisionClient, cfg *config.Config, engine *layout.Engine) *placement.Planner {
	return placement.NewPlanner(placement.NewModelLocator(c, cfg.Placement.Model), engine)
}

func buildLabel(cfg *config.Config, text string, x, y, size, padding, bgOpacity float64, textColor, bgColor string) (layout.LabelConfig, error) {
	rc := cfg.Render
	label := layout.LabelConfig{
		Text:              text,
		X:                 x,
		Y:                 y,
		FontSize:          rc.FontSize,
		Padding:           rc.Padding,
		BackgroundOpacity: rc.BackgroundOpacity,
	}
	if size > 0 {
		label.FontSize = size
	}
	if padding >= 0 {
		label.Padding = padding
	}
	if bgOpacity >= 0 {
		label.BackgroundOpacity = bgOpacity
	}
	if textColor == "" {
		textColor = rc.TextColor
	}
	if bgColor == "" {
		bgColor = rc.BackgroundColor
	}

	var err error
	if label.Color, err = layout.ParseHexColor(textColor); err != nil {
		return label, err
	}
	if label.Background, err = layout.ParseHexColor(bgColor); err != nil {
		return label, err
	}
	if err := label.Validate(); err != nil {
		return label, err
	}
	return label, nil
}
