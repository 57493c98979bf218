package intent

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
}

func (s *stubLLM) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	return s.response, s.err
}

func TestClassify_UsesLLMResponseWhenValid(t *testing.T) {
	c := NewClassifier(&stubLLM{response: "esg"})
	tag := c.Classify(context.Background(), "tell me about the fund")
	assert.Equal(t, ragtypes.IntentESG, tag)
}

func TestClassify_FallsBackToKeywordsOnLLMError(t *testing.T) {
	c := NewClassifier(&stubLLM{err: errors.New("boom")})
	tag := c.Classify(context.Background(), "what is my portfolio allocation")
	assert.Equal(t, ragtypes.IntentPortfolio, tag)
}

func TestClassify_FallsBackToKeywordsOnUnparseableTag(t *testing.T) {
	c := NewClassifier(&stubLLM{response: "not a real tag"})
	tag := c.Classify(context.Background(), "run a monte carlo simulation")
	assert.Equal(t, ragtypes.IntentMonteCarlo, tag)
}

func TestClassify_NilProviderUsesKeywordFallback(t *testing.T) {
	c := NewClassifier(nil)
	tag := c.Classify(context.Background(), "what is the integrated best ideas archetype")
	assert.Equal(t, ragtypes.IntentArchetype, tag)
}

func TestClassifyByKeyword_PriorityOrder(t *testing.T) {
	assert.Equal(t, ragtypes.IntentMonteCarlo, classifyByKeyword("monte carlo probability of success"))
	assert.Equal(t, ragtypes.IntentESG, classifyByKeyword("our esg sustainability policy"))
	assert.Equal(t, ragtypes.IntentArchetype, classifyByKeyword("integrated best ideas fund"))
	assert.Equal(t, ragtypes.IntentRisk, classifyByKeyword("what is my risk tolerance"))
	assert.Equal(t, ragtypes.IntentPortfolio, classifyByKeyword("show me the portfolio allocation"))
	assert.Equal(t, ragtypes.IntentGeneral, classifyByKeyword("what time is it"))
}

func TestIsFormulaQuery(t *testing.T) {
	assert.True(t, IsFormulaQuery("how do you calculate the sharpe ratio formula"))
	assert.False(t, IsFormulaQuery("what is my balance"))
}

func TestClassifier_TimeoutDefaultsWhenZero(t *testing.T) {
	c := &Classifier{LLM: &stubLLM{response: "risk"}}
	require.Equal(t, time.Duration(0), c.Timeout)
	assert.Equal(t, 2*time.Second, c.timeout())
}
