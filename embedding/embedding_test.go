package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altirag/prism-rag/config"
)

func TestNewOpenAIProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIProvider(Config{Model: "text-embedding-3-small"})
	assert.Error(t, err)
}

func TestNewOpenAIProvider_RequiresModel(t *testing.T) {
	_, err := NewOpenAIProvider(Config{APIKey: "sk-test"})
	assert.Error(t, err)
}

func TestNewOpenAIProvider_StoresDimensions(t *testing.T) {
	p, err := NewOpenAIProvider(Config{APIKey: "sk-test", Model: "text-embedding-3-small", Dimensions: 1536})
	require.NoError(t, err)
	assert.Equal(t, int64(1536), p.dims)
}

func TestNewEmbeddingProvider_PropagatesValidationError(t *testing.T) {
	_, err := NewEmbeddingProvider(config.EmbeddingConfig{Model: "text-embedding-3-small"})
	assert.Error(t, err)
}

func TestNewEmbeddingProvider_BuildsFromConfig(t *testing.T) {
	p, err := NewEmbeddingProvider(config.EmbeddingConfig{
		APIKey: "sk-test", Model: "text-embedding-3-small", Dimensions: 768,
	})
	require.NoError(t, err)
	require.NotNil(t, p)
}
