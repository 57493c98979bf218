// Package expander issues a single LLM call to widen a query with
// related terms before retrieval runs; the pipeline calls it for short
// queries or general-intent queries with few words. Grounded on pre-retrieve/processors.go's
// DefaultExpansionProcessor.generateExpansionWithLLM, trimmed from its
// multi-node taxonomy/synonym/LLM pipeline down to the single LLM call
// spec.md §4.5 calls for.
package expander

import (
	"context"
	"fmt"
	"strings"

	"github.com/altirag/prism-rag/llm"
)

// Term is one expansion term with its relative weight.
type Term struct {
	Term   string
	Weight float64
}

const expandPrompt = `Generate 3-6 expansion terms for sparse retrieval (BM25) of the following query.

Query: %s

Requirements:
- Include related keywords and terminology
- Include domain-specific terms
- Include potential synonyms or variants
- Avoid stopwords and overly generic terms

Output format (one term per line with weight 0.5-1.0):
term1 | weight
term2 | weight

Expansion Terms:`

// Expander widens a query with an LLM-generated term list.
type Expander struct {
	LLM llm.Provider
}

func New(llmProvider llm.Provider) *Expander {
	return &Expander{LLM: llmProvider}
}

// Expand returns expansion terms for query, and the widened query text
// (original query plus the expansion terms appended) ready for the
// retrieval pass. Returns the original query unchanged, with no
// terms, on any LLM error — expansion failure must not block retrieval.
func (e *Expander) Expand(ctx context.Context, query string) (string, []Term) {
	if e.LLM == nil {
		return query, nil
	}
	resp, err := e.LLM.GenerateCompletion(ctx, fmt.Sprintf(expandPrompt, query))
	if err != nil {
		return query, nil
	}
	terms := parseTerms(resp)
	if len(terms) == 0 {
		return query, nil
	}
	words := make([]string, 0, len(terms))
	for _, t := range terms {
		words = append(words, t.Term)
	}
	return query + " " + strings.Join(words, " "), terms
}

func parseTerms(resp string) []Term {
	var terms []Term
	for _, line := range strings.Split(resp, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "|")
		term := strings.TrimSpace(parts[0])
		if term == "" {
			continue
		}
		weight := 0.7
		if len(parts) >= 2 {
			fmt.Sscanf(strings.TrimSpace(parts[1]), "%f", &weight)
		}
		terms = append(terms, Term{Term: term, Weight: weight})
	}
	return terms
}
