package summary

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"gitchangelog/internal/logger"
)

// GeminiClient talks to the Google Gemini API. The SDK client is created lazily.
type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *genai.Client
}

// NewGeminiClient creates a Gemini client.
func NewGeminiClient(apiKey, model, baseURL string) *GeminiClient {
	return &GeminiClient{apiKey: apiKey, model: model, baseURL: baseURL}
}

// Provider returns "gemini".
func (c *GeminiClient) Provider() string {
	return ProviderGemini
}

func (c *GeminiClient) initializeClientIfNeeded(ctx context.Context) error {
	if c.client != nil {
		return nil
	}
	cfg := &genai.ClientConfig{APIKey: c.apiKey, Backend: genai.BackendGeminiAPI}
	if c.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.client = client
	logger.Debug("Gemini client initialized", "provider", ProviderGemini)
	return nil
}

// Complete implements Client. Thought parts are skipped.
func (c *GeminiClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	if err := c.initializeClientIfNeeded(ctx); err != nil {
		return "", err
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{SystemInstruction: genai.NewContentFromText(system, genai.RoleUser)},
	)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	var content strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text == "" || part.Thought {
				continue
			}
			content.WriteString(part.Text)
		}
	}
	return content.String(), nil
}
