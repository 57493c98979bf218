// Package embedding wraps text-embedding access behind a provider
// interface used by the semantic retriever.
package embedding

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/altirag/prism-rag/config"
)

// Provider returns a dense vector for a piece of text.
type Provider interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
}

type OpenAIProvider struct {
	client openai.Client
	model  string
	dims   int64
}

func NewOpenAIProvider(cfg Config) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("embedding: api key required")
	}
	if cfg.Model == "" {
		return nil, errors.New("embedding: model required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	c := openai.NewClient(opts...)
	return &OpenAIProvider{client: c, model: cfg.Model, dims: int64(cfg.Dimensions)}, nil
}

func (p *OpenAIProvider) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	params := openai.EmbeddingNewParams{
		Model: p.model,
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	}
	if p.dims > 0 {
		params.Dimensions = openai.Int(p.dims)
	}
	resp, err := p.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embedding: empty response")
	}
	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// NewEmbeddingProvider builds a Provider from a config.EmbeddingConfig.
func NewEmbeddingProvider(cfg config.EmbeddingConfig) (Provider, error) {
	return NewOpenAIProvider(Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
	})
}
