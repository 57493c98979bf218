package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altirag/prism-rag/schema"
)

func docResult(id string) schema.SearchResult {
	return schema.SearchResult{Document: schema.Document{ID: id}}
}

func TestFuseHybrid_CombinesRanksFromBothLists(t *testing.T) {
	semantic := []schema.SearchResult{docResult("a"), docResult("b"), docResult("c")}
	lexical := []schema.SearchResult{docResult("b"), docResult("a"), docResult("d")}

	out := FuseHybrid(semantic, lexical, 0.6, 0.4, 60, nil)
	require.Len(t, out, 4)

	ids := make(map[string]bool, len(out))
	for _, r := range out {
		ids[r.Document.ID] = true
	}
	for _, id := range []string{"a", "b", "c", "d"} {
		assert.True(t, ids[id])
	}
	assert.Equal(t, "a", out[0].Document.ID, "a ranks first in the higher-weighted semantic list and should win fusion")
}

func TestFuseHybrid_DefaultsKappaWhenNonPositive(t *testing.T) {
	semantic := []schema.SearchResult{docResult("a")}
	out := FuseHybrid(semantic, nil, 1.0, 0.0, 0, nil)
	require.Len(t, out, 1)
	assert.InDelta(t, 1.0/61.0, out[0].Score, 1e-9)
}

func TestFuseHybrid_AppliesBoostFunction(t *testing.T) {
	semantic := []schema.SearchResult{docResult("a"), docResult("b")}
	boost := func(docID string) float64 {
		if docID == "b" {
			return 10.0
		}
		return 1.0
	}
	out := FuseHybrid(semantic, nil, 1.0, 0.0, 60, boost)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].Document.ID, "boosted document should outrank an unboosted higher-RRF one")
}

func TestFuseHybrid_SkipsEmptyDocID(t *testing.T) {
	semantic := []schema.SearchResult{docResult(""), docResult("a")}
	out := FuseHybrid(semantic, nil, 1.0, 0.0, 60, nil)
	assert.Len(t, out, 1)
	assert.Equal(t, "a", out[0].Document.ID)
}

func TestFuseHybrid_EmptyInputsYieldEmptyOutput(t *testing.T) {
	out := FuseHybrid(nil, nil, 1.0, 1.0, 60, nil)
	assert.Empty(t, out)
}
