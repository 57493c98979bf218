package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		RAG: RAGConfig{TopK: 5, Threshold: 0.5},
		LLM: LLMConfig{Provider: "openai", Model: "gpt-4o"},
		Embedding: EmbeddingConfig{
			Provider:   "openai",
			Model:      "text-embedding-3-small",
			Dimensions: 1536,
		},
		VectorDB: VectorDBConfig{Provider: "milvus", Host: "localhost", Collection: "docs"},
	}
}

func TestValidate_ValidConfigPasses(t *testing.T) {
	c := validConfig()
	assert.NoError(t, c.Validate())
}

func TestValidate_MissingEmbeddingFieldsReported(t *testing.T) {
	c := validConfig()
	c.Embedding.Provider = ""
	c.Embedding.Model = ""
	c.Embedding.Dimensions = 0

	err := c.Validate()
	require.Error(t, err)
	errs, ok := err.(ValidationErrors)
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(errs), 3)
}

func TestValidate_EmbeddingDimensionsOutsideRange(t *testing.T) {
	c := validConfig()
	c.Embedding.Dimensions = 8
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside typical range")
}

func TestValidate_VectorDBRequiresHostAndCollectionForMilvus(t *testing.T) {
	c := validConfig()
	c.VectorDB.Host = ""
	c.VectorDB.Collection = ""
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vectordb host is required")
}

func TestValidate_SQLiteRequiresDatabasePath(t *testing.T) {
	c := validConfig()
	c.VectorDB.Provider = "sqlite"
	c.VectorDB.Host = ""
	c.VectorDB.Collection = ""
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database path is required")
}

func TestValidate_RAGTopKOutOfBounds(t *testing.T) {
	c := validConfig()
	c.RAG.TopK = 0
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")

	c2 := validConfig()
	c2.RAG.TopK = 500
	err2 := c2.Validate()
	require.Error(t, err2)
	assert.Contains(t, err2.Error(), "too large")
}

func TestValidate_RAGThresholdOutOfRange(t *testing.T) {
	c := validConfig()
	c.RAG.Threshold = 1.5
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "threshold must be in")
}

func TestValidate_PipelineRRFKMustBeNonNegative(t *testing.T) {
	c := validConfig()
	c.Pipeline = DefaultPipeline()
	c.Pipeline.RRFK = -1
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rrf_k must be non-negative")
}

func TestValidate_PipelineSessionStoreMustBeKnown(t *testing.T) {
	c := validConfig()
	c.Pipeline = DefaultPipeline()
	c.Pipeline.Session.Store = "memcached"
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be \"inmemory\" or \"redis\"")
}

func TestValidate_PipelineSessionTTLMustBeNonNegative(t *testing.T) {
	c := validConfig()
	c.Pipeline = DefaultPipeline()
	c.Pipeline.Session.TTLSeconds = -1
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ttl_seconds must be non-negative")
}

func TestValidationErrors_ErrorFormatsCountAndMessages(t *testing.T) {
	errs := ValidationErrors{
		{Field: "a", Message: "first problem"},
		{Field: "b", Message: "second problem"},
	}
	msg := errs.Error()
	assert.Contains(t, msg, "found 2 configuration error(s)")
	assert.Contains(t, msg, "first problem")
	assert.Contains(t, msg, "second problem")
}

func TestValidationErrors_EmptyReturnsEmptyString(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "", errs.Error())
}
