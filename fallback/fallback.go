// Package fallback implements the linear, non-graded retrieve-and-
// generate path used when the main pipeline's breaker is open or an
// uncaught error escapes the staged path. It shares the main path's
// response schema but skips intent classification, grading, reranking
// and quality scoring entirely, per spec.md §4.10.
package fallback

import (
	"context"
	"fmt"

	"github.com/altirag/prism-rag/embedding"
	"github.com/altirag/prism-rag/llm"
	"github.com/altirag/prism-rag/ragtypes"
	"github.com/altirag/prism-rag/retriever"
	"github.com/altirag/prism-rag/schema"
	"github.com/altirag/prism-rag/vectordb"
)

const promptTemplate = `Context information is below.
---------------------
%s
---------------------
Given the context information and not prior knowledge, answer the query as concisely as possible.

Query: %s
Answer: `

const unavailableAnswer = "I'm unable to generate a response right now. Please try again shortly."

// Path runs the fallback retrieve-and-generate sequence.
type Path struct {
	Embed embedding.Provider
	Store vectordb.VectorStoreProvider
	LLM   llm.Provider
	TopK  int
}

func New(embed embedding.Provider, store vectordb.VectorStoreProvider, llmProvider llm.Provider) *Path {
	return &Path{Embed: embed, Store: store, LLM: llmProvider, TopK: 5}
}

// Run retrieves the top-K passages by vector similarity alone (no
// lexical fusion, no grading) and generates directly from them.
func (p *Path) Run(ctx context.Context, q ragtypes.Query) ragtypes.Result {
	res := ragtypes.Result{ID: q.ID, Endpoint: "fallback", Quality: ragtypes.QualityAmbiguous}

	topK := p.TopK
	if topK <= 0 {
		topK = 5
	}

	var docs []schema.SearchResult
	var err error
	if p.Embed != nil && p.Store != nil {
		vr := &retriever.VectorRetriever{Embed: p.Embed, Store: p.Store, TopK: topK}
		docs, err = vr.Search(ctx, q.Text, topK)
	}
	if err != nil || len(docs) == 0 {
		res.Quality = ragtypes.QualityPoor
		res.Answer = unavailableAnswer
		if err != nil {
			res.Error = fmt.Sprintf("fallback retrieval failed: %v", err)
		} else {
			res.Error = "fallback retrieval returned no passages"
		}
		return res
	}

	contextBlock := ""
	citations := make([]ragtypes.Citation, 0, len(docs))
	for i, d := range docs {
		contextBlock += fmt.Sprintf("[%d] %s\n\n", i+1, d.Document.Content)
		chunkIdx := 0
		if v, ok := d.Document.Metadata["chunk_index"].(int); ok {
			chunkIdx = v
		}
		citations = append(citations, ragtypes.Citation{SourcePath: d.Document.ID, ChunkIndex: chunkIdx, Score: d.Score})
	}

	if p.LLM == nil {
		res.Answer = unavailableAnswer
		res.Error = "fallback: no llm provider configured"
		res.Quality = ragtypes.QualityPoor
		return res
	}

	answer, err := p.LLM.GenerateCompletion(ctx, fmt.Sprintf(promptTemplate, contextBlock, q.Text))
	if err != nil {
		res.Answer = unavailableAnswer
		res.Error = fmt.Sprintf("fallback generation failed: %v", err)
		res.Quality = ragtypes.QualityPoor
		return res
	}

	res.Answer = answer
	res.Citations = citations
	res.Quality = ragtypes.QualityAmbiguous
	return res
}
