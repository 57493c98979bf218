package fallback

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altirag/prism-rag/ragtypes"
	"github.com/altirag/prism-rag/schema"
	"github.com/altirag/prism-rag/vectordb"
)

type stubEmbed struct {
	vec []float32
	err error
}

func (s *stubEmbed) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	return s.vec, s.err
}

type stubStore struct {
	docs []schema.SearchResult
	err  error
}

func (s *stubStore) AddDoc(ctx context.Context, docs []schema.Document) error { return nil }
func (s *stubStore) DeleteDocs(ctx context.Context, ids []string) error      { return nil }
func (s *stubStore) ListDocs(ctx context.Context, limit int) ([]schema.Document, error) {
	return nil, nil
}
func (s *stubStore) SearchDocs(ctx context.Context, vector []float32, opts *schema.SearchOptions) ([]schema.SearchResult, error) {
	return s.docs, s.err
}
func (s *stubStore) Stats(ctx context.Context) (vectordb.CollectionStats, error) {
	return vectordb.CollectionStats{}, nil
}

type stubLLM struct {
	response string
	err      error
}

func (s *stubLLM) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	return s.response, s.err
}

func TestRun_SuccessfulPath(t *testing.T) {
	embed := &stubEmbed{vec: []float32{0.1, 0.2}}
	store := &stubStore{docs: []schema.SearchResult{
		{Document: schema.Document{ID: "doc1", Content: "relevant passage"}, Score: 0.8},
	}}
	llmP := &stubLLM{response: "the answer [1]"}

	p := New(embed, store, llmP)
	res := p.Run(context.Background(), ragtypes.Query{ID: "q1", Text: "question"})

	assert.Equal(t, "fallback", res.Endpoint)
	assert.Equal(t, ragtypes.QualityAmbiguous, res.Quality)
	assert.Equal(t, "the answer [1]", res.Answer)
	require.Len(t, res.Citations, 1)
	assert.Equal(t, "doc1", res.Citations[0].SourcePath)
	assert.Empty(t, res.Error)
}

func TestRun_NoDocsReturnsUnavailablePoor(t *testing.T) {
	embed := &stubEmbed{vec: []float32{0.1}}
	store := &stubStore{docs: nil}
	p := New(embed, store, &stubLLM{response: "unused"})

	res := p.Run(context.Background(), ragtypes.Query{ID: "q1", Text: "q"})
	assert.Equal(t, ragtypes.QualityPoor, res.Quality)
	assert.Equal(t, unavailableAnswer, res.Answer)
	assert.NotEmpty(t, res.Error)
}

func TestRun_RetrievalErrorReturnsUnavailablePoor(t *testing.T) {
	embed := &stubEmbed{vec: []float32{0.1}}
	store := &stubStore{err: errors.New("store down")}
	p := New(embed, store, &stubLLM{response: "unused"})

	res := p.Run(context.Background(), ragtypes.Query{ID: "q1", Text: "q"})
	assert.Equal(t, ragtypes.QualityPoor, res.Quality)
	assert.Contains(t, res.Error, "fallback retrieval failed")
}

func TestRun_NoProvidersConfiguredReturnsUnavailable(t *testing.T) {
	p := New(nil, nil, &stubLLM{})
	res := p.Run(context.Background(), ragtypes.Query{ID: "q1", Text: "q"})
	assert.Equal(t, ragtypes.QualityPoor, res.Quality)
	assert.Equal(t, unavailableAnswer, res.Answer)
}

func TestRun_LLMErrorReturnsUnavailablePoor(t *testing.T) {
	embed := &stubEmbed{vec: []float32{0.1}}
	store := &stubStore{docs: []schema.SearchResult{{Document: schema.Document{ID: "d", Content: "x"}}}}
	p := New(embed, store, &stubLLM{err: errors.New("llm down")})

	res := p.Run(context.Background(), ragtypes.Query{ID: "q1", Text: "q"})
	assert.Equal(t, ragtypes.QualityPoor, res.Quality)
	assert.Contains(t, res.Error, "fallback generation failed")
}

func TestRun_NilLLMReturnsUnavailable(t *testing.T) {
	embed := &stubEmbed{vec: []float32{0.1}}
	store := &stubStore{docs: []schema.SearchResult{{Document: schema.Document{ID: "d", Content: "x"}}}}
	p := New(embed, store, nil)

	res := p.Run(context.Background(), ragtypes.Query{ID: "q1", Text: "q"})
	assert.Equal(t, ragtypes.QualityPoor, res.Quality)
	assert.Contains(t, res.Error, "no llm provider configured")
}

func TestNew_DefaultsTopK(t *testing.T) {
	p := New(nil, nil, nil)
	assert.Equal(t, 5, p.TopK)
}
