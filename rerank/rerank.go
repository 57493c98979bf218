// Package rerank orders the graded candidate list and drops passages
// that fall below the survivor bar, producing the final survivor set
// handed to the generator. Grounded on post/rerank.go's Reranker
// interface shape (a single Rerank(ctx, query, in, topN) method),
// re-keyed from cross-encoder/keyword scores to the grader's
// grade+confidence signal.
package rerank

import (
	"sort"

	"github.com/altirag/prism-rag/ragtypes"
)

// Options configures the reranking pass.
type Options struct {
	ConfidenceFloor float64 // drop passages with GradeConfidence below this
	K               int     // keep at most this many survivors
}

// Rerank orders candidates by grade confidence descending, with fused
// retrieval score as a tiebreaker, then drops any passage graded
// irrelevant or below the confidence floor, per spec.md §4.7. At most
// opts.K survivors are kept.
func Rerank(candidates []ragtypes.Passage, opts Options) []ragtypes.Passage {
	floor := opts.ConfidenceFloor
	if floor <= 0 {
		floor = 0.3
	}
	k := opts.K
	if k <= 0 {
		k = 5
	}

	kept := make([]ragtypes.Passage, 0, len(candidates))
	for _, p := range candidates {
		if p.Grade == ragtypes.GradeIrrelevant {
			continue
		}
		if p.GradeConfidence < floor {
			continue
		}
		kept = append(kept, p)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].GradeConfidence != kept[j].GradeConfidence {
			return kept[i].GradeConfidence > kept[j].GradeConfidence
		}
		return kept[i].FusedScore > kept[j].FusedScore
	})

	if len(kept) > k {
		kept = kept[:k]
	}
	return kept
}
