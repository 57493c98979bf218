package rerank

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/altirag/prism-rag/ragtypes"
)

func TestRerank_DropsIrrelevantAndBelowFloor(t *testing.T) {
	candidates := []ragtypes.Passage{
		{ID: "a", Grade: ragtypes.GradeRelevant, GradeConfidence: 0.9},
		{ID: "b", Grade: ragtypes.GradeIrrelevant, GradeConfidence: 0.9},
		{ID: "c", Grade: ragtypes.GradePartial, GradeConfidence: 0.1},
	}
	out := Rerank(candidates, Options{ConfidenceFloor: 0.3, K: 5})
	assert.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ID)
}

func TestRerank_OrdersByConfidenceThenFusedScore(t *testing.T) {
	candidates := []ragtypes.Passage{
		{ID: "low-conf", Grade: ragtypes.GradeRelevant, GradeConfidence: 0.5, FusedScore: 0.9},
		{ID: "high-conf", Grade: ragtypes.GradeRelevant, GradeConfidence: 0.9, FusedScore: 0.1},
		{ID: "tie-high-fused", Grade: ragtypes.GradeRelevant, GradeConfidence: 0.9, FusedScore: 0.5},
	}
	out := Rerank(candidates, Options{ConfidenceFloor: 0.3, K: 5})
	assert.Equal(t, []string{"tie-high-fused", "high-conf", "low-conf"}, []string{out[0].ID, out[1].ID, out[2].ID})
}

func TestRerank_LimitsToK(t *testing.T) {
	candidates := make([]ragtypes.Passage, 10)
	for i := range candidates {
		candidates[i] = ragtypes.Passage{ID: string(rune('a' + i)), Grade: ragtypes.GradeRelevant, GradeConfidence: 0.9}
	}
	out := Rerank(candidates, Options{ConfidenceFloor: 0.3, K: 3})
	assert.Len(t, out, 3)
}

func TestRerank_AppliesDefaultsWhenZero(t *testing.T) {
	candidates := []ragtypes.Passage{
		{ID: "a", Grade: ragtypes.GradePartial, GradeConfidence: 0.29},
		{ID: "b", Grade: ragtypes.GradePartial, GradeConfidence: 0.31},
	}
	out := Rerank(candidates, Options{})
	assert.Len(t, out, 1)
	assert.Equal(t, "b", out[0].ID)
}

func TestRerank_EmptyInputYieldsEmptyOutput(t *testing.T) {
	out := Rerank(nil, Options{})
	assert.Empty(t, out)
}
