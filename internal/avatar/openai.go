// Package avatar generates persona portrait images through the
// OpenAI-compatible image endpoint.
package avatar

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAI struct {
	client *openai.Client
	model  string
	style  string
}

func NewOpenAI(apiKey, model, baseURL string) *OpenAI {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if strings.TrimSpace(model) == "" {
		model = "wanx-v1"
	}
	return &OpenAI{client: openai.NewClientWithConfig(config), model: model, style: "anime"}
}

// Generate returns a hosted URL for a freshly generated portrait.
func (g *OpenAI) Generate(ctx context.Context, name, description string) (string, error) {
	prompt := fmt.Sprintf("Portrait of %s, %s, %s style, high quality, detailed", name, description, g.style)

	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Model:  g.model,
		Prompt: prompt,
		N:      1,
		Size:   "512x512",
	})
	if err != nil {
		return "", fmt.Errorf("image generation: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", fmt.Errorf("image generation: no image in response")
	}
	return resp.Data[0].URL, nil
}
