package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"gitchangelog/internal/logger"
)

const anthropicMaxTokens = 512

// AnthropicClient talks to the Anthropic messages API. The SDK client is created lazily.
type AnthropicClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *anthropic.Client
}

// NewAnthropicClient creates an Anthropic client.
func NewAnthropicClient(apiKey, model, baseURL string) *AnthropicClient {
	return &AnthropicClient{apiKey: apiKey, model: model, baseURL: baseURL}
}

// Provider returns "anthropic".
func (c *AnthropicClient) Provider() string {
	return ProviderAnthropic
}

func (c *AnthropicClient) initializeClientIfNeeded() {
	if c.client != nil {
		return
	}
	options := []option.RequestOption{option.WithAPIKey(c.apiKey)}
	if c.baseURL != "" {
		options = append(options, option.WithBaseURL(c.baseURL))
	}
	client := anthropic.NewClient(options...)
	c.client = &client
	logger.Debug("Anthropic client initialized", "provider", ProviderAnthropic)
}

// Complete implements Client. Text blocks of the reply are concatenated.
func (c *AnthropicClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	c.initializeClientIfNeeded()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: anthropicMaxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	var content strings.Builder
	for _, block := range message.Content {
		content.WriteString(block.Text)
	}
	return content.String(), nil
}
