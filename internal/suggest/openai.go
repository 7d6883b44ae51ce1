package suggest

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const visionMaxTokens = 300

// OpenAIVision talks to an OpenAI-compatible chat endpoint with image_url parts.
type OpenAIVision struct {
	client *openai.Client
	model  string
}

// NewOpenAIVision - baseURL пустой для api.openai.com
func NewOpenAIVision(apiKey, model, baseURL string) (*OpenAIVision, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openai api key is empty")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}

	return &OpenAIVision{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (o *OpenAIVision) Complete(ctx context.Context, prompt string, images []string) (string, error) {
	parts := make([]openai.ChatMessagePart, 0, len(images)+1)
	parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: prompt})
	for _, ref := range images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    imageURL(ref),
				Detail: openai.ImageURLDetailLow,
			},
		})
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		MaxTokens:   visionMaxTokens,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// imageURL turns a bare base64 payload into a data URI, URLs and data URIs pass as is.
func imageURL(ref string) string {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "data:") || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return "data:image/png;base64," + ref
}
