package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altirag/prism-rag/config"
)

func TestDefaultConfig_SeedsRuntimeAndMapping(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg.Runtime)
	assert.Equal(t, "recursive", cfg.RAG.Splitter.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.NotEmpty(t, cfg.VectorDB.Mapping.Fields)
	assert.Equal(t, "HNSW", cfg.VectorDB.Mapping.Index.IndexType)
}

func TestNewDefaultRAGConfig_WrapsDefaultConfig(t *testing.T) {
	c := NewDefaultRAGConfig()
	require.NotNil(t, c.config)
	assert.Equal(t, 10, c.config.RAG.TopK)
}

func TestSetConfig_RejectsNil(t *testing.T) {
	c := NewDefaultRAGConfig()
	err := c.SetConfig(nil)
	assert.Error(t, err)
}

func TestSetConfig_FillsRuntimeWhenMissing(t *testing.T) {
	c := NewDefaultRAGConfig()
	cfg := &config.Config{}
	require.NoError(t, c.SetConfig(cfg))
	require.NotNil(t, cfg.Runtime)
	assert.Equal(t, 10, cfg.Runtime.KRetrieve)
}

func TestParseConfig_MissingEmbeddingProviderErrors(t *testing.T) {
	c := NewDefaultRAGConfig()
	err := c.ParseConfig(map[string]any{
		"embedding": map[string]any{"model": "text-embedding-3-small"},
	})
	assert.Error(t, err)
}

func TestParseConfig_MissingVectorDBProviderErrors(t *testing.T) {
	c := NewDefaultRAGConfig()
	err := c.ParseConfig(map[string]any{
		"embedding": map[string]any{"provider": "openai"},
		"vectordb":  map[string]any{"host": "localhost"},
	})
	assert.Error(t, err)
}

func TestParseConfig_OverlaysRAGAndLLMAndRuntime(t *testing.T) {
	c := NewDefaultRAGConfig()
	err := c.ParseConfig(map[string]any{
		"rag": map[string]any{
			"threshold": 0.75,
			"top_k":     float64(20),
			"splitter":  map[string]any{"provider": "token", "chunk_size": float64(300)},
		},
		"llm": map[string]any{
			"provider": "openai",
			"model":    "gpt-4o-mini",
		},
		"embedding": map[string]any{"provider": "openai"},
		"vectordb":  map[string]any{"provider": "milvus"},
		"runtime": map[string]any{
			"k_retrieve":    float64(8),
			"cache_enabled": false,
		},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, c.config.RAG.Threshold, 1e-9)
	assert.Equal(t, 20, c.config.RAG.TopK)
	assert.Equal(t, "token", c.config.RAG.Splitter.Provider)
	assert.Equal(t, 300, c.config.RAG.Splitter.ChunkSize)
	assert.Equal(t, "gpt-4o-mini", c.config.LLM.Model)
	assert.Equal(t, "milvus", c.config.VectorDB.Provider)
	require.NotNil(t, c.config.Runtime)
	assert.Equal(t, 8, c.config.Runtime.KRetrieve)
	assert.False(t, c.config.Runtime.CacheEnabled)
}

func TestParseConfig_ParsesPipelineOverlay(t *testing.T) {
	c := NewDefaultRAGConfig()
	err := c.ParseConfig(map[string]any{
		"embedding": map[string]any{"provider": "openai"},
		"vectordb":  map[string]any{"provider": "milvus"},
		"pipeline": map[string]any{
			"enable_hybrid": false,
			"rrf_k":         float64(40),
			"session": map[string]any{
				"store":       "redis",
				"ttl_seconds": float64(3600),
			},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, c.config.Pipeline)
	assert.False(t, c.config.Pipeline.EnableHybrid)
	assert.Equal(t, 40, c.config.Pipeline.RRFK)
	require.NotNil(t, c.config.Pipeline.Session)
	assert.Equal(t, "redis", c.config.Pipeline.Session.Store)
	assert.Equal(t, 3600, c.config.Pipeline.Session.TTLSeconds)
}
