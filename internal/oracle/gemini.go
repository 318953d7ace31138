package oracle

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiClient runs extraction through the Gemini API instead of a local
// host. Credentials come from the environment (GEMINI_API_KEY).
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini-backed oracle for the given model name.
func NewGeminiClient(ctx context.Context, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("oracle: create genai client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Complete implements Oracle.
func (g *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("oracle: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("oracle: empty response from model")
	}
	return text, nil
}
