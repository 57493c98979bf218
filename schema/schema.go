// Package schema defines the shared document and search result types
// passed between retrievers, fusion, grading and generation stages.
package schema

import "time"

// Document is a single indexed passage.
type Document struct {
	ID        string
	Content   string
	Metadata  map[string]interface{}
	Vector    []float32
	CreatedAt time.Time
}

// SearchResult pairs a Document with its retrieval score. Score meaning
// depends on the producing stage (cosine similarity, BM25 weight, fused
// RRF score, grader confidence) — callers should not assume a fixed
// scale across stages.
type SearchResult struct {
	Document Document
	Score    float64
}

// SearchOptions configures a vector or lexical search call.
type SearchOptions struct {
	TopK      int
	Threshold float64
}
