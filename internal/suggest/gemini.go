package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// ImageLoader fetches raw image bytes, Gemini wants inline data instead of URLs.
type ImageLoader interface {
	Load(ctx context.Context, ref string) ([]byte, string, error)
}

type GeminiVision struct {
	client *genai.Client
	model  string
	loader ImageLoader
}

func NewGeminiVision(ctx context.Context, apiKey, model string, loader ImageLoader) (*GeminiVision, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is empty")
	}
	if loader == nil {
		return nil, errors.New("gemini vision needs an image loader")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiVision{client: client, model: model, loader: loader}, nil
}

func (g *GeminiVision) Complete(ctx context.Context, prompt string, images []string) (string, error) {
	parts := make([]*genai.Part, 0, len(images)+1)
	parts = append(parts, genai.NewPartFromText(prompt))
	for _, ref := range images {
		data, mime, err := g.loader.Load(ctx, ref)
		if err != nil {
			return "", err
		}
		parts = append(parts, genai.NewPartFromBytes(data, mime))
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr[float32](0.2),
			ResponseMIMEType: "application/json",
		})
	if err != nil {
		return "", err
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini returned empty response")
	}
	return text, nil
}
