// Package ollama backs subject location with a local Ollama server.
package ollama

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/jimwhimpey/beforeafterify/pkg/client"
	"github.com/jimwhimpey/beforeafterify/pkg/types"
)

// Client wraps the Ollama API client.
type Client struct {
	client *api.Client
}

// NewClient creates a new Ollama client from a server URL; any path component
// (like /api/chat) is ignored.
func NewClient(ollamaURL string) (*Client, error) {
	parsed, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	base := &url.URL{
		Scheme: parsed.Scheme,
		Host:   parsed.Host,
	}
	return &Client{client: api.NewClient(base, http.DefaultClient)}, nil
}

// SimpleQuery sends a free-form prompt with an image and returns the raw
// response text.
func (c *Client) SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	ctx, cancel := ensureTimeout(ctx)
	defer cancel()

	imgBytes, err := base64.StdEncoding.DecodeString(imgB64)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 image: %w", err)
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: prompt,
				Images:  []api.ImageData{api.ImageData(imgBytes)},
			},
		},
		Stream: &streamFalse,
	}

	var responseContent string
	err = c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		responseContent = resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat error: %w", err)
	}
	return responseContent, nil
}

// LocateSubject asks the model where the image's dominant subject sits and
// parses the JSON answer.
func (c *Client) LocateSubject(ctx context.Context, model, prompt, imgB64 string) (*types.Detection, error) {
	raw, err := c.SimpleQuery(ctx, model, prompt, imgB64)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, fmt.Errorf("empty response from ollama")
	}
	return client.ParseDetection(raw)
}

// ensureTimeout adds a generous deadline for CPU-bound vision models when the
// caller did not set one.
func ensureTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 300*time.Second)
}
