package grader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altirag/prism-rag/ragtypes"
)

type stubLLM struct {
	response string
	err      error
	calls    int
}

func (s *stubLLM) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	s.calls++
	return s.response, s.err
}

func passages(n int) []ragtypes.Passage {
	out := make([]ragtypes.Passage, n)
	for i := range out {
		out[i] = ragtypes.Passage{ID: string(rune('a' + i)), Text: "some passage text"}
	}
	return out
}

func TestGrade_AllSucceed(t *testing.T) {
	g := New(&stubLLM{response: "grade: relevant\nconfidence: 0.9"}, 4, time.Second)
	out, err := g.Grade(context.Background(), "q", passages(3))
	require.NoError(t, err)
	require.Len(t, out, 3)
	for _, p := range out {
		assert.Equal(t, ragtypes.GradeRelevant, p.Grade)
		assert.InDelta(t, 0.9, p.GradeConfidence, 1e-9)
	}
}

func TestGrade_EmptyCandidatesReturnsEmpty(t *testing.T) {
	g := New(&stubLLM{response: "grade: relevant\nconfidence: 1.0"}, 4, time.Second)
	out, err := g.Grade(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGrade_AllFailReturnsError(t *testing.T) {
	g := New(&stubLLM{err: errors.New("boom")}, 4, 50*time.Millisecond)
	g.MaxRetries = 0
	out, err := g.Grade(context.Background(), "q", passages(2))
	require.Error(t, err)
	require.Len(t, out, 2)
	for _, p := range out {
		assert.Equal(t, ragtypes.GradeIrrelevant, p.Grade)
		assert.Equal(t, 0.0, p.GradeConfidence)
	}
}

func TestGrade_NilLLMSoftDropsAllPassages(t *testing.T) {
	g := New(nil, 4, 50*time.Millisecond)
	g.MaxRetries = 0
	out, err := g.Grade(context.Background(), "q", passages(1))
	require.Error(t, err)
	assert.Equal(t, ragtypes.GradeIrrelevant, out[0].Grade)
}

func TestParseVerdict_ClampsConfidence(t *testing.T) {
	grade, conf, err := parseVerdict("grade: partial\nconfidence: 1.8")
	require.NoError(t, err)
	assert.Equal(t, ragtypes.GradePartial, grade)
	assert.Equal(t, 1.0, conf)
}

func TestParseVerdict_DefaultsConfidenceWhenMissing(t *testing.T) {
	grade, conf, err := parseVerdict("grade: irrelevant")
	require.NoError(t, err)
	assert.Equal(t, ragtypes.GradeIrrelevant, grade)
	assert.InDelta(t, 0.5, conf, 1e-9)
}

func TestParseVerdict_ErrorsWhenGradeUnparseable(t *testing.T) {
	_, _, err := parseVerdict("no grade here")
	assert.Error(t, err)
}

func TestNew_AppliesDefaults(t *testing.T) {
	g := New(nil, 0, 0)
	assert.Equal(t, 16, g.Parallelism)
	assert.Equal(t, 3*time.Second, g.Timeout)
}
