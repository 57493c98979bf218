package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/altirag/prism-rag/config"
	"github.com/altirag/prism-rag/embedding"
	"github.com/altirag/prism-rag/llm"
	"github.com/altirag/prism-rag/schema"
	"github.com/altirag/prism-rag/textsplitter"
	"github.com/altirag/prism-rag/vectordb"
	"github.com/google/uuid"
)

const (
	MAX_LIST_KNOWLEDGE_ROW_COUNT = 1000
	MAX_LIST_DOCUMENT_ROW_COUNT  = 1000
)

// RAGClient owns the ingestion-side dependencies shared by the MCP
// chunk-management tools: the embedding model, the vector store and
// the text splitter used to turn raw text into indexed passages.
// Query-time retrieval, grading and generation live in package
// pipeline, which is handed these same providers at construction.
type RAGClient struct {
	config            *config.Config
	vectordbProvider  vectordb.VectorStoreProvider
	embeddingProvider embedding.Provider
	textSplitter      textsplitter.TextSplitter
	llmProvider       llm.Provider
	sessions          SessionStore
}

// NewRAGClient creates a new RAG client instance
func NewRAGClient(config *config.Config) (*RAGClient, error) {
	ragclient := &RAGClient{
		config: config,
	}
	textSplitter, err := textsplitter.NewTextSplitter(&config.RAG.Splitter)
	if err != nil {
		return nil, fmt.Errorf("create text splitter failed, err: %w", err)
	}
	ragclient.textSplitter = textSplitter

	embeddingProvider, err := embedding.NewEmbeddingProvider(ragclient.config.Embedding)
	if err != nil {
		return nil, fmt.Errorf("create embedding provider failed, err: %w", err)
	}
	ragclient.embeddingProvider = embeddingProvider

	if ragclient.config.LLM.Provider == "" {
		ragclient.llmProvider = nil
	} else {
		llmProvider, err := llm.NewLLMProvider(ragclient.config.LLM)
		if err != nil {
			return nil, fmt.Errorf("create llm provider failed, err: %w", err)
		}
		ragclient.llmProvider = llmProvider
	}

	dim := ragclient.config.Embedding.Dimensions
	provider, err := vectordb.NewVectorDBProvider(context.Background(), &ragclient.config.VectorDB, dim)
	if err != nil {
		return nil, fmt.Errorf("create vector store provider failed, err: %w", err)
	}
	ragclient.vectordbProvider = provider

	sessions, err := newSessionStore(ragclient.config.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("create session store failed, err: %w", err)
	}
	ragclient.sessions = sessions

	return ragclient, nil
}

// newSessionStore builds the conversation-session store thread_id is
// recorded against, purely for observability grouping. Defaults to an
// in-memory store; set pipeline.session.store to "redis" to persist
// across restarts.
func newSessionStore(pc *config.PipelineConfig) (SessionStore, error) {
	if pc == nil || pc.Session == nil || pc.Session.Store != "redis" {
		return NewMemSessionStore(), nil
	}
	return NewRedisSessionStore(pc.Session)
}

// ListChunks lists document chunks by knowledge ID, returns in ascending order of DocumentIndex
func (r *RAGClient) ListChunks() ([]schema.Document, error) {
	docs, err := r.vectordbProvider.ListDocs(context.Background(), MAX_LIST_DOCUMENT_ROW_COUNT)
	if err != nil {
		return nil, fmt.Errorf("list chunks failed, err: %w", err)
	}
	return docs, nil
}

// DeleteChunk deletes a specific document chunk
func (r *RAGClient) DeleteChunk(id string) error {
	if err := r.vectordbProvider.DeleteDocs(context.Background(), []string{id}); err != nil {
		return fmt.Errorf("delete chunk failed, err: %w", err)
	}
	return nil
}

func (r *RAGClient) CreateChunkFromText(text string, title string) ([]schema.Document, error) {

	docs, err := textsplitter.CreateDocuments(r.textSplitter, []string{text}, make([]map[string]any, 0))
	if err != nil {
		return nil, fmt.Errorf("create documents failed, err: %w", err)
	}

	results := make([]schema.Document, 0, len(docs))

	for chunkIndex, doc := range docs {
		doc.ID = uuid.New().String()
		doc.Metadata["chunk_index"] = chunkIndex
		doc.Metadata["chunk_title"] = title
		doc.Metadata["chunk_size"] = len(doc.Content)
		// Generate embedding for the document
		vec, err := r.embeddingProvider.GetEmbedding(context.Background(), doc.Content)
		if err != nil {
			return nil, fmt.Errorf("create embedding failed, err: %w", err)
		}
		doc.Vector = vec
		doc.CreatedAt = time.Now()
		results = append(results, doc)
	}

	if err := r.vectordbProvider.AddDoc(context.Background(), results); err != nil {
		return nil, fmt.Errorf("add documents failed, err: %w", err)
	}

	return results, nil
}

// SearchChunks searches for document chunks
func (r *RAGClient) SearchChunks(query string, topK int, threshold float64) ([]schema.SearchResult, error) {

	vector, err := r.embeddingProvider.GetEmbedding(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("create embedding failed, err: %w", err)
	}
	options := &schema.SearchOptions{
		TopK:      topK,
		Threshold: threshold,
	}
	docs, err := r.vectordbProvider.SearchDocs(context.Background(), vector, options)
	if err != nil {
		return nil, fmt.Errorf("search chunks failed, err: %w", err)
	}
	return docs, nil
}

// Embedding exposes the embedding provider for the query pipeline.
func (r *RAGClient) Embedding() embedding.Provider { return r.embeddingProvider }

// VectorStore exposes the vector store for the query pipeline.
func (r *RAGClient) VectorStore() vectordb.VectorStoreProvider { return r.vectordbProvider }

// LLM exposes the chat completion provider for the query pipeline.
func (r *RAGClient) LLM() llm.Provider { return r.llmProvider }

// Sessions exposes the conversation-session store so the chat tool can
// record thread_id activity for observability grouping.
func (r *RAGClient) Sessions() SessionStore { return r.sessions }
