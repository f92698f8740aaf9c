package summary

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"gitchangelog/internal/logger"
)

// OpenAIClient talks to the OpenAI chat completions API. The SDK client is created lazily.
type OpenAIClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *openai.Client
}

// NewOpenAIClient creates an OpenAI client. baseURL may point at a compatible endpoint.
func NewOpenAIClient(apiKey, model, baseURL string) *OpenAIClient {
	return &OpenAIClient{apiKey: apiKey, model: model, baseURL: baseURL}
}

// Provider returns "openai".
func (c *OpenAIClient) Provider() string {
	return ProviderOpenAI
}

func (c *OpenAIClient) initializeClientIfNeeded() {
	if c.client != nil {
		return
	}
	options := []option.RequestOption{option.WithAPIKey(c.apiKey)}
	if c.baseURL != "" {
		options = append(options, option.WithBaseURL(c.baseURL))
	}
	client := openai.NewClient(options...)
	c.client = &client
	logger.Debug("OpenAI client initialized", "provider", ProviderOpenAI)
}

// Complete implements Client.
func (c *OpenAIClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	c.initializeClientIfNeeded()

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}
	return completion.Choices[0].Message.Content, nil
}
