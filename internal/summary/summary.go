// Package summary asks an LLM provider for a short "highlights" paragraph describing a
// release. It is optional: the release tool works without it.
package summary

import (
	"context"
	"fmt"
	"strings"

	"gitchangelog/internal/apperr"
	"gitchangelog/internal/logger"
	"gitchangelog/pkg/changelogtypes"
)

// Provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// DefaultModels is used when no model is configured.
var DefaultModels = map[string]string{
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-3-5-haiku-latest",
	ProviderGemini:    "gemini-2.0-flash",
}

// APIKeyEnv names the environment variable holding each provider's key.
var APIKeyEnv = map[string]string{
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
	ProviderGemini:    "GOOGLE_API_KEY",
}

const systemPrompt = "You write release notes. Given the commits of a software release, reply with " +
	"one short paragraph (at most three sentences) of plain markdown highlighting the most important " +
	"user-facing changes. Do not list every commit and do not add a heading."

// maxPromptCommits caps how many commits are sent to the provider.
const maxPromptCommits = 200

// Client sends one system + user prompt and returns the text reply.
type Client interface {
	Provider() string
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Config selects and authenticates a provider.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// NewClient returns the client for cfg.Provider.
func NewClient(cfg Config) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	model := cfg.Model
	if model == "" {
		model = DefaultModels[provider]
	}

	if _, known := DefaultModels[provider]; !known {
		return nil, apperr.Newf(apperr.ErrInvalidInput, "unknown summary provider %q (expected openai, anthropic or gemini)", cfg.Provider)
	}
	if cfg.APIKey == "" {
		return nil, apperr.Newf(apperr.ErrInvalidInput, "%s API key not configured (set %s)", provider, APIKeyEnv[provider])
	}

	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(cfg.APIKey, model, cfg.BaseURL), nil
	case ProviderAnthropic:
		return NewAnthropicClient(cfg.APIKey, model, cfg.BaseURL), nil
	default:
		return NewGeminiClient(cfg.APIKey, model, cfg.BaseURL), nil
	}
}

// Summarizer produces release highlights through a Client.
type Summarizer struct {
	client Client
}

// New wraps client.
func New(client Client) *Summarizer {
	return &Summarizer{client: client}
}

// Summarize returns the highlights paragraph for the commits of tag.
func (s *Summarizer) Summarize(ctx context.Context, tag string, commits []changelogtypes.Commit) (string, error) {
	prompt := BuildPrompt(tag, commits)
	logger.Debug("requesting release highlights", "provider", s.client.Provider(), "commits", len(commits))

	text, err := s.client.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("%s summary failed: %w", s.client.Provider(), err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%s returned an empty summary", s.client.Provider())
	}
	return text, nil
}

// BuildPrompt lists the commits, grouped by category, as the user prompt.
func BuildPrompt(tag string, commits []changelogtypes.Commit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Release %s contains %d commits.\n", tag, len(commits))

	if len(commits) > maxPromptCommits {
		commits = commits[:maxPromptCommits]
	}
	for _, category := range changelogtypes.Categories {
		first := true
		for _, c := range commits {
			if c.Type != category {
				continue
			}
			if first {
				fmt.Fprintf(&b, "\n%s:\n", category.Title())
				first = false
			}
			fmt.Fprintf(&b, "- %s\n", c.DisplaySubject())
		}
	}
	return b.String()
}
