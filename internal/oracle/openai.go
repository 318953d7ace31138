package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// LocalClient calls an OpenAI-compatible chat completion endpoint, which is
// how local model hosts expose themselves. The temperature is pinned to zero:
// extraction wants the most deterministic decode the host offers.
type LocalClient struct {
	BaseURL string
	APIKey  string
	Model   string

	HTTPClient *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete implements Oracle.
func (c *LocalClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.BaseURL == "" || c.Model == "" {
		return "", fmt.Errorf("oracle: base URL and model required")
	}

	reqBody, err := json.Marshal(chatRequest{
		Model:    c.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	endpoint := strings.TrimSuffix(c.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("oracle: calling model host: %w", err)
	}
	defer resp.Body.Close()

	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("oracle: decoding model response: %w", err)
	}
	if payload.Error != nil {
		return "", fmt.Errorf("oracle: model host error: %s", payload.Error.Message)
	}
	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("oracle: empty response from model")
	}
	return payload.Choices[0].Message.Content, nil
}

func (c *LocalClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 120 * time.Second}
}
