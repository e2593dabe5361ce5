// Package client defines the vision-model interface used for subject-aware
// label placement, plus the shared response-parsing helpers both backends
// need.
package client

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/jimwhimpey/beforeafterify/pkg/types"
)

// VisionClient locates the dominant subject of an image so a label can be
// placed clear of it.
type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	LocateSubject(ctx context.Context, model, prompt, imgB64 string) (*types.Detection, error)
}

var blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)

// SanitizeModelJSON strips markdown fences and comments that vision models
// wrap around their JSON output.
func SanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")
	raw = blockComment.ReplaceAllString(raw, "")
	return strings.TrimSpace(raw)
}

// ParseDetection parses a model's response into a Detection, tolerating
// fenced or prefixed JSON. Responses with no usable JSON fall back to a
// centered generic subject rather than failing the whole placement.
func ParseDetection(raw string) (*types.Detection, error) {
	raw = SanitizeModelJSON(raw)

	var result types.Detection
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < 0 || end <= start {
			return fallbackDetection("no JSON found in model response"), nil
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &result); err != nil {
			return fallbackDetection("failed to parse model response"), nil
		}
	}

	result.Primary.Box = result.Primary.Box.Clamp()
	if result.Primary.Box.Empty() {
		result.Primary.Box = types.Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5}
	}
	if result.Primary.Cx == 0 && result.Primary.Cy == 0 {
		result.Primary.Cx = result.Primary.Box.X + result.Primary.Box.W/2
		result.Primary.Cy = result.Primary.Box.Y + result.Primary.Box.H/2
	}
	return &result, nil
}

func fallbackDetection(description string) *types.Detection {
	return &types.Detection{
		Primary: types.Subject{
			Label:      "unclear",
			Confidence: 0.1,
			Box:        types.Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5},
			Cx:         0.5,
			Cy:         0.5,
		},
		Description: description,
		Tags:        []string{"fallback"},
	}
}
