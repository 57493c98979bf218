package fusion

import (
    "sort"

    "github.com/altirag/prism-rag/schema"
)

// RRFScore computes Reciprocal Rank Fusion score across multiple ranked lists.
func RRFScore(lists [][]schema.SearchResult, k int) []schema.SearchResult {
    if k <= 0 { k = 60 }
    // Accumulate scores by document ID
    type agg struct{ doc schema.Document; score float64 }
    scores := map[string]*agg{}

    for _, list := range lists {
        for idx, item := range list {
            id := item.Document.ID
            if id == "" {
                // Fallback to content hash key if needed; here we skip empty IDs.
                continue
            }
            if _, ok := scores[id]; !ok {
                scores[id] = &agg{doc: item.Document, score: 0}
            }
            // RRF: 1 / (k + rank)
            rank := float64(idx+1)
            scores[id].score += 1.0 / (float64(k) + rank)
        }
    }

    out := make([]schema.SearchResult, 0, len(scores))
    for _, v := range scores {
        out = append(out, schema.SearchResult{Document: v.doc, Score: v.score})
    }
    sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
    return out
}

// FuseHybrid combines a semantic-ranked and a lexical-ranked list using
// weighted Reciprocal Rank Fusion:
//
//	fused(d) = wSem*(1/(kappa+rank_sem(d))) + wBM*(1/(kappa+rank_bm(d)))
//
// A document missing from one list contributes zero from that list's
// term, not a penalty. boost(docID) is not applied to the score itself;
// per spec.md §4.4 it only breaks ties among candidates whose fused
// scores fall within 5% of each other, via tieBreakByPriority.
func FuseHybrid(semantic, lexical []schema.SearchResult, wSem, wBM float64, kappa int, boost func(docID string) float64) []schema.SearchResult {
    if kappa <= 0 {
        kappa = 60
    }
    type agg struct {
        doc   schema.Document
        score float64
    }
    scores := map[string]*agg{}

    add := func(list []schema.SearchResult, weight float64) {
        for idx, item := range list {
            id := item.Document.ID
            if id == "" {
                continue
            }
            if _, ok := scores[id]; !ok {
                scores[id] = &agg{doc: item.Document, score: 0}
            }
            rank := float64(idx + 1)
            scores[id].score += weight * (1.0 / (float64(kappa) + rank))
        }
    }
    add(semantic, wSem)
    add(lexical, wBM)

    out := make([]schema.SearchResult, 0, len(scores))
    for _, v := range scores {
        out = append(out, schema.SearchResult{Document: v.doc, Score: v.score})
    }
    sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
    if boost != nil {
        tieBreakByPriority(out, boost)
    }
    return out
}

// tieBreakByPriority walks the score-descending list and, within each run
// of consecutive candidates whose score stays within 5% of the run's
// highest score, reorders that run by boost(docID) descending. Scores are
// left untouched; only order within a tie window changes.
func tieBreakByPriority(out []schema.SearchResult, boost func(docID string) float64) {
    const tieWindow = 0.05
    n := len(out)
    for i := 0; i < n; {
        top := out[i].Score
        j := i + 1
        for j < n && top > 0 && top-out[j].Score <= tieWindow*top {
            j++
        }
        if j-i > 1 {
            window := out[i:j]
            sort.SliceStable(window, func(a, b int) bool {
                ba, bb := boost(window[a].Document.ID), boost(window[b].Document.ID)
                if ba != bb {
                    return ba > bb
                }
                return window[a].Score > window[b].Score
            })
        }
        i = j
    }
}
