// Package placement suggests label positions that keep the label clear of an
// image's dominant subject. The subject can come from a vision model (ollama
// or llama.cpp backends) or from the built-in saliency locator, which needs no
// network.
package placement

import (
	"context"
	"fmt"

	"github.com/jimwhimpey/beforeafterify/pkg/assets"
	"github.com/jimwhimpey/beforeafterify/pkg/client"
	"github.com/jimwhimpey/beforeafterify/pkg/layout"
	"github.com/jimwhimpey/beforeafterify/pkg/types"
)

// LocatePrompt asks a vision model for the dominant subject of an image so a
// caption can be positioned away from it.
const LocatePrompt = `You are an image subject locator.

Return JSON only:
{
  "primary": {
    "label": "string",
    "confidence": 0.0,
    "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0},
    "cx": 0.0,
    "cy": 0.0
  },
  "description": "short neutral sentence (<= 20 words)",
  "tags": ["tag1", "tag2", "tag3"]
}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels).
- The box should tightly include the visually dominant subject (prefer people/vehicles/animals; else the most central salient object).
- A text caption will be placed on this image; the box marks the area it must avoid covering.
- Description must be brief and factual. Do not guess real identities.
- If no subject is found, return:
  {
    "primary":{"label":"none","confidence":0.0,"box":{"x":0.25,"y":0.25,"w":0.50,"h":0.50},"cx":0.5,"cy":0.5},
    "description":"centered generic scene",
    "tags":["generic","center","scene"]
  }
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// The image size and quality sent to vision backends.
const (
	modelSendMaxDim  = 1536
	modelSendQuality = 85
)

// Locator finds the region of an image a label should avoid, as a normalized
// box.
type Locator interface {
	Locate(ctx context.Context, a *assets.Asset) (types.Box, error)
}

// ModelLocator asks a remote vision model for the subject box.
type ModelLocator struct {
	client client.VisionClient
	model  string
}

// NewModelLocator creates a Locator over a vision client and model name.
func NewModelLocator(c client.VisionClient, model string) *ModelLocator {
	return &ModelLocator{client: c, model: model}
}

// Locate sends a downscaled copy of the asset to the model and returns the
// detected subject box.
func (m *ModelLocator) Locate(ctx context.Context, a *assets.Asset) (types.Box, error) {
	imgB64, err := a.EncodeBase64("jpg", modelSendMaxDim, modelSendQuality)
	if err != nil {
		return types.Box{}, fmt.Errorf("failed to prepare image for model: %w", err)
	}

	det, err := m.client.LocateSubject(ctx, m.model, LocatePrompt, imgB64)
	if err != nil {
		return types.Box{}, fmt.Errorf("subject location failed: %w", err)
	}
	return det.Primary.Box.Clamp(), nil
}

// Planner scores candidate label positions against the subject box and picks
// the least intrusive one.
type Planner struct {
	locator Locator
	engine  *layout.Engine
}

// NewPlanner creates a Planner with the given locator and layout engine.
func NewPlanner(locator Locator, engine *layout.Engine) *Planner {
	return &Planner{locator: locator, engine: engine}
}

// Suggest returns a logical top-left position for the label that minimizes
// overlap with the image's dominant subject. Candidates are the corners and
// edge midpoints of the image, clamped through the layout engine so the
// returned position is always renderable. Ties go to the earliest candidate,
// corners first.
func (p *Planner) Suggest(ctx context.Context, a *assets.Asset, label layout.LabelConfig) (float64, float64, error) {
	if a == nil {
		return 0, 0, fmt.Errorf("nil asset")
	}
	if err := label.Validate(); err != nil {
		return 0, 0, err
	}

	box, err := p.locator.Locate(ctx, a)
	if err != nil {
		return 0, 0, err
	}

	w := float64(a.Width)
	h := float64(a.Height)
	subject := rect{
		x0: box.X * w,
		y0: box.Y * h,
		x1: (box.X + box.W) * w,
		y1: (box.Y + box.H) * h,
	}

	margin := label.Padding + 8
	candidates := [][2]float64{
		{margin, margin}, // corners first
		{w, margin},
		{margin, h},
		{w, h},
		{w / 2, margin}, // then edge midpoints
		{w / 2, h},
		{margin, h / 2},
		{w, h / 2},
	}

	bestX, bestY := label.X, label.Y
	bestScore := -1.0
	for _, cand := range candidates {
		trial := label
		trial.X, trial.Y = cand[0], cand[1]
		place, err := p.engine.Place(trial, w, h, 1)
		if err != nil {
			return 0, 0, err
		}
		b := place.Bounds
		overlap := intersectArea(rect{b.Left, b.Top, b.Right, b.Bottom}, subject)
		if bestScore < 0 || overlap < bestScore {
			bestScore = overlap
			bestX, bestY = place.TextLeft, place.TextTop
		}
	}
	return bestX, bestY, nil
}

type rect struct {
	x0, y0, x1, y1 float64
}

func intersectArea(a, b rect) float64 {
	w := min(a.x1, b.x1) - max(a.x0, b.x0)
	h := min(a.y1, b.y1) - max(a.y0, b.y0)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}
