// Package llm wraps chat-completion access behind a small provider
// interface so callers (grader, generator, expander, intent classifier)
// never depend on a concrete SDK.
package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/altirag/prism-rag/config"
)

// Provider generates a single completion from a fully-rendered prompt.
type Provider interface {
	GenerateCompletion(ctx context.Context, prompt string) (string, error)
}

// Config configures an OpenAI-compatible chat client.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
}

// OpenAIProvider implements Provider against any OpenAI-compatible
// chat completions endpoint.
type OpenAIProvider struct {
	client openai.Client
	model  string
	temp   float64
	maxTok int64
}

func NewOpenAIProvider(cfg Config) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: api key required")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm: model required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	c := openai.NewClient(opts...)
	maxTok := int64(cfg.MaxTokens)
	if maxTok <= 0 {
		maxTok = 1024
	}
	return &OpenAIProvider{client: c, model: cfg.Model, temp: cfg.Temperature, maxTok: maxTok}, nil
}

func (p *OpenAIProvider) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(p.temp),
		MaxTokens:   openai.Int(p.maxTok),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm: empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// NewLLMProvider builds a Provider from a config.LLMConfig. The
// returned Provider is always OpenAI-compatible; cfg.Provider is not
// read or validated here.
func NewLLMProvider(cfg config.LLMConfig) (Provider, error) {
	return NewOpenAIProvider(Config{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
}

// BuildPrompt joins query and retrieved contexts into a plain completion
// prompt. The chat path does not call it; the generator renders its
// prompts from the template registry instead.
func BuildPrompt(query string, contexts []string, sep string) string {
	var b strings.Builder
	if len(contexts) > 0 {
		b.WriteString("Context:\n")
		b.WriteString(strings.Join(contexts, sep))
		b.WriteString("\n\n")
	}
	b.WriteString("Question: ")
	b.WriteString(query)
	return b.String()
}
