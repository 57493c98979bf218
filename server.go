package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/altirag/prism-rag/common/logger"
	"github.com/altirag/prism-rag/config"
	"github.com/altirag/prism-rag/pipeline"
	"github.com/mark3labs/mcp-go/server"
)

const Version = "1.0.0"

type RAGConfig struct {
	config *config.Config
}

// NewDefaultRAGConfig returns a RAGConfig seeded with the same baseline
// values the server ships with before ParseConfig overlays a loaded
// config file onto it.
func NewDefaultRAGConfig() *RAGConfig {
	return &RAGConfig{config: DefaultConfig()}
}

// SetConfig replaces the RAGConfig's underlying config wholesale,
// for callers (cmd/server/main.go) that parse a YAML file directly
// into config.Config's own yaml tags rather than through ParseConfig's
// generic map[string]any overlay.
func (c *RAGConfig) SetConfig(cfg *config.Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if cfg.Runtime == nil {
		cfg.Runtime = config.DefaultPipelineRuntime()
	}
	c.config = cfg
	return nil
}

// DefaultConfig returns the baseline config the server ships with
// before a loaded file or ParseConfig's map overlay is applied.
func DefaultConfig() *config.Config {
	return &config.Config{
		RAG: config.RAGConfig{
			Splitter: config.SplitterConfig{
				Provider:     "recursive",
				ChunkSize:    500,
				ChunkOverlap: 50,
			},
			Threshold: 0.5,
			TopK:      10,
		},
		LLM: config.LLMConfig{
			Provider:    "",
			APIKey:      "",
			BaseURL:     "",
			Model:       "gpt-4o",
			Temperature: 0.5,
			MaxTokens:   2048,
		},
		Embedding: config.EmbeddingConfig{
			Provider:   "",
			APIKey:     "",
			BaseURL:    "",
			Model:      "",
			Dimensions: 0,
		},
		VectorDB: config.VectorDBConfig{
			Provider:   "",
			Host:       "",
			Port:       0,
			Database:   "",
			Collection: "",
			Username:   "",
			Password:   "",
			Mapping: config.MappingConfig{
				Fields: []config.FieldMapping{
					{
						StandardName: "id",
						RawName:      "id",
						Properties: map[string]interface{}{
							"max_length": 256,
							"auto_id":    false,
						},
					},
					{
						StandardName: "content",
						RawName:      "content",
						Properties: map[string]interface{}{
							"max_length": 8192,
						},
					},
					{
						StandardName: "vector",
						RawName:      "vector",
						Properties:   make(map[string]interface{}),
					},
					{
						StandardName: "metadata",
						RawName:      "metadata",
						Properties:   make(map[string]interface{}),
					},
					{
						StandardName: "created_at",
						RawName:      "created_at",
						Properties:   make(map[string]interface{}),
					},
				},
				Index: config.IndexConfig{
					IndexType: "HNSW",
					Params:    map[string]interface{}{"M": 8, "efConstruction": 64},
				},
				Search: config.SearchConfig{
					MetricType: "IP",
					Params:     make(map[string]interface{}),
				},
			},
		},
		Runtime: config.DefaultPipelineRuntime(),
	}
}
func (c *RAGConfig) ParseConfig(cfg map[string]any) error {
	// Parse RAG configuration
	if ragConfig, ok := cfg["rag"].(map[string]any); ok {
		if splitter, exists := ragConfig["splitter"].(map[string]any); exists {
			if splitterType, exists := splitter["provider"].(string); exists {
				c.config.RAG.Splitter.Provider = splitterType
			}
			if chunkSize, exists := splitter["chunk_size"].(float64); exists {
				c.config.RAG.Splitter.ChunkSize = int(chunkSize)
			}
			if chunkOverlap, exists := splitter["chunk_overlap"].(float64); exists {
				c.config.RAG.Splitter.ChunkOverlap = int(chunkOverlap)
			}
		}
		if threshold, exists := ragConfig["threshold"].(float64); exists {
			c.config.RAG.Threshold = threshold
		}
		if topK, exists := ragConfig["top_k"].(float64); exists {
			c.config.RAG.TopK = int(topK)
		}
	}

	// Parse Embedding configuration
	if embeddingConfig, ok := cfg["embedding"].(map[string]any); ok {
		if provider, exists := embeddingConfig["provider"].(string); exists {
			c.config.Embedding.Provider = provider
		} else {
			return errors.New("missing embedding provider")
		}

		if apiKey, exists := embeddingConfig["api_key"].(string); exists {
			c.config.Embedding.APIKey = apiKey
		}
		if baseURL, exists := embeddingConfig["base_url"].(string); exists {
			c.config.Embedding.BaseURL = baseURL
		}
		if model, exists := embeddingConfig["model"].(string); exists {
			c.config.Embedding.Model = model
		}
		if dimensions, exists := embeddingConfig["dimensions"].(float64); exists {
			c.config.Embedding.Dimensions = int(dimensions)
		}
	}

	// Parse llm configuration
	if llmConfig, ok := cfg["llm"].(map[string]any); ok {
		if provider, exists := llmConfig["provider"].(string); exists {
			c.config.LLM.Provider = provider
		}
		if apiKey, exists := llmConfig["api_key"].(string); exists {
			c.config.LLM.APIKey = apiKey
		}
		if baseURL, exists := llmConfig["base_url"].(string); exists {
			c.config.LLM.BaseURL = baseURL
		}
		if model, exists := llmConfig["model"].(string); exists {
			c.config.LLM.Model = model
		}
		if temperature, exists := llmConfig["temperature"].(float64); exists {
			c.config.LLM.Temperature = temperature
		}
		if maxTokens, exists := llmConfig["max_tokens"].(float64); exists {
			c.config.LLM.MaxTokens = int(maxTokens)
		}
	}

	// Parse VectorDB configuration
	if vectordbConfig, ok := cfg["vectordb"].(map[string]any); ok {
		if provider, exists := vectordbConfig["provider"].(string); exists {
			c.config.VectorDB.Provider = provider
		} else {
			return errors.New("missing vectordb provider")
		}
		if host, exists := vectordbConfig["host"].(string); exists {
			c.config.VectorDB.Host = host
		}
		if port, exists := vectordbConfig["port"].(float64); exists {
			c.config.VectorDB.Port = int(port)
		}
		if dbName, exists := vectordbConfig["database"].(string); exists {
			c.config.VectorDB.Database = dbName
		}
		if collection, exists := vectordbConfig["collection"].(string); exists {
			c.config.VectorDB.Collection = collection
		}
		if username, exists := vectordbConfig["username"].(string); exists {
			c.config.VectorDB.Username = username
		}
		if password, exists := vectordbConfig["password"].(string); exists {
			c.config.VectorDB.Password = password
		}

		// Parse mapping here
		if mapping, exists := vectordbConfig["mapping"].(map[string]any); exists {
			// Parse field mappings
			if fields, ok := mapping["fields"].([]any); ok {
				c.config.VectorDB.Mapping.Fields = []config.FieldMapping{}
				for _, field := range fields {
					if fieldMap, ok := field.(map[string]any); ok {
						fieldMapping := config.FieldMapping{
							Properties: make(map[string]interface{}),
						}
						if standardName, ok := fieldMap["standard_name"].(string); ok {
							fieldMapping.StandardName = standardName
						}

						if rawName, ok := fieldMap["raw_name"].(string); ok {
							fieldMapping.RawName = rawName
						}
						// Parse properties
						if properties, ok := fieldMap["properties"].(map[string]any); ok {
							for key, value := range properties {
								fieldMapping.Properties[key] = value
							}
						}
						c.config.VectorDB.Mapping.Fields = append(c.config.VectorDB.Mapping.Fields, fieldMapping)
					}
				}
			}

			// Parse index configuration
			if index, ok := mapping["index"].(map[string]any); ok {
				if indexType, ok := index["index_type"].(string); ok {
					c.config.VectorDB.Mapping.Index.IndexType = indexType
				}

				// Parse index parameters
				if params, ok := index["params"].(map[string]any); ok {
					c.config.VectorDB.Mapping.Index.Params = params
				}
			}

			// Parse search configuration
			if search, ok := mapping["search"].(map[string]any); ok {
				if metricType, ok := search["metric_type"].(string); ok {
					c.config.VectorDB.Mapping.Search.MetricType = metricType
				}
				// Parse search parameters
				if params, ok := search["params"].(map[string]any); ok {
					c.config.VectorDB.Mapping.Search.Params = params
				}
			}
		}
	}

	// Optional: parse pipeline-level overlay (hybrid toggle, RRF k, session store)
	if pipelineConfig, ok := cfg["pipeline"].(map[string]any); ok {
		pc := config.DefaultPipeline()
		if v, ok := pipelineConfig["enable_hybrid"].(bool); ok {
			pc.EnableHybrid = v
		}
		if v, ok := pipelineConfig["rrf_k"].(float64); ok {
			pc.RRFK = int(v)
		}

		if sess, ok := pipelineConfig["session"].(map[string]any); ok {
			if pc.Session == nil {
				pc.Session = &config.SessionConfig{}
			}
			if s, ok := sess["store"].(string); ok {
				pc.Session.Store = s
			}
			if v, ok := sess["ttl_seconds"].(float64); ok {
				pc.Session.TTLSeconds = int(v)
			}
			if r, ok := sess["redis"].(map[string]any); ok {
				pc.Session.Redis = map[string]interface{}{}
				for k, v := range r {
					pc.Session.Redis[k] = v
				}
			}
		}

		c.config.Pipeline = pc
	}

	// runtime (query pipeline stage parameters)
	if runtimeConfig, ok := cfg["runtime"].(map[string]any); ok {
		rt := config.DefaultPipelineRuntime()
		if v, ok := runtimeConfig["k_retrieve"].(float64); ok { rt.KRetrieve = int(v) }
		if v, ok := runtimeConfig["k_rerank"].(float64); ok { rt.KRerank = int(v) }
		if v, ok := runtimeConfig["w_semantic"].(float64); ok { rt.WSemantic = v }
		if v, ok := runtimeConfig["w_bm25"].(float64); ok { rt.WBM25 = v }
		if v, ok := runtimeConfig["rrf_kappa"].(float64); ok { rt.RRFKappa = int(v) }
		if v, ok := runtimeConfig["grader_parallelism"].(float64); ok { rt.GraderParallelism = int(v) }
		if v, ok := runtimeConfig["grader_timeout_ms"].(float64); ok { rt.GraderTimeoutMs = int(v) }
		if v, ok := runtimeConfig["generator_timeout_ms"].(float64); ok { rt.GeneratorTimeoutMs = int(v) }
		if v, ok := runtimeConfig["request_deadline_ms"].(float64); ok { rt.RequestDeadlineMs = int(v) }
		if v, ok := runtimeConfig["fallback_deadline_ms"].(float64); ok { rt.FallbackDeadlineMs = int(v) }
		if v, ok := runtimeConfig["cache_enabled"].(bool); ok { rt.CacheEnabled = v }
		if v, ok := runtimeConfig["cache_ttl_s"].(float64); ok { rt.CacheTTLS = int(v) }
		if v, ok := runtimeConfig["cache_max_size"].(float64); ok { rt.CacheMaxSize = int(v) }
		if v, ok := runtimeConfig["breaker_threshold"].(float64); ok { rt.BreakerThreshold = int(v) }
		if v, ok := runtimeConfig["breaker_reset_s"].(float64); ok { rt.BreakerResetS = int(v) }
		if v, ok := runtimeConfig["inflight_cap"].(float64); ok { rt.InflightCap = int(v) }
		if v, ok := runtimeConfig["expander_enabled"].(bool); ok { rt.ExpanderEnabled = v }
		if v, ok := runtimeConfig["rerank_confidence_floor"].(float64); ok { rt.RerankConfidenceFloor = v }
		if v, ok := runtimeConfig["quality_good_confidence"].(float64); ok { rt.QualityGoodConfidence = v }
		c.config.Runtime = rt
	}

	return nil
}

// NewServer builds the MCP server and registers every tool: the four
// ingestion tools backed directly by RAGClient, plus the query/chat
// and feedback tools backed by the query pipeline. ragClient and the
// pipeline share the same embedding provider and vector store so a
// chunk created through create-chunks-from-text is immediately
// visible to both the vector and the local BM25 index that backs chat.
func (c *RAGConfig) NewServer(serverName string) (*server.MCPServer, error) {
	ragClient, err := NewRAGClient(c.config)
	if err != nil {
		return nil, fmt.Errorf("create rag client failed, err: %w", err)
	}

	rt := c.config.Runtime
	if rt == nil {
		rt = config.DefaultPipelineRuntime()
	}

	deps := pipeline.Deps{
		Runtime: rt,
		Embed:   ragClient.Embedding(),
		Store:   ragClient.VectorStore(),
		LLM:     ragClient.LLM(),
	}
	if pc := c.config.Pipeline; pc != nil {
		deps.LexicalDisabled = !pc.EnableHybrid
		deps.RRFKappa = pc.RRFK
	}

	p := pipeline.New(deps)

	if err := warmLexicalIndex(context.Background(), ragClient, p); err != nil {
		logger.Warnf("server: lexical index warmup failed: %v", err)
	}
	if err := warmDependencies(context.Background(), ragClient); err != nil {
		logger.Warnf("server: dependency warmup failed, a downstream provider may be unreachable: %v", err)
	}

	mcpServer := server.NewMCPServer(
		serverName,
		Version,
		server.WithInstructions("This is a RAG (Retrieval-Augmented Generation) server for wealth-management knowledge management and intelligent Q&A"),
	)

	registerIngestionTools(mcpServer, ragClient, p)
	registerQueryTools(mcpServer, ragClient, p)

	return mcpServer, nil
}

// warmLexicalIndex seeds the in-memory BM25 index from whatever is
// already in the vector store, so chat's hybrid retrieval has lexical
// coverage immediately after a restart instead of only for chunks
// ingested in the current process.
func warmLexicalIndex(ctx context.Context, ragClient *RAGClient, p *pipeline.Pipeline) error {
	docs, err := ragClient.ListChunks()
	if err != nil {
		return err
	}
	for _, d := range docs {
		p.IndexDocument(d)
	}
	logger.Infof("server: warmed lexical index with %d chunks", len(docs))
	return nil
}

// warmDependencies issues one trivial embedding call and, when an LLM
// provider is configured, one trivial completion call, per spec.md §5:
// a dead embedding or LLM backend should fail the server at startup,
// not surface as a mysterious error on the first real user request.
func warmDependencies(ctx context.Context, ragClient *RAGClient) error {
	if _, err := ragClient.Embedding().GetEmbedding(ctx, "warmup probe"); err != nil {
		return fmt.Errorf("embedding probe: %w", err)
	}
	if ragClient.LLM() != nil {
		if _, err := ragClient.LLM().GenerateCompletion(ctx, "Respond with the single word: ready."); err != nil {
			return fmt.Errorf("llm probe: %w", err)
		}
	}
	logger.Infof("server: warmed embedding and llm dependencies")
	return nil
}
