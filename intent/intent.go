// Package intent classifies a query into the fixed, closed tag set the
// pipeline uses to pick a generation template: archetype, portfolio,
// risk, monte_carlo, esg, general. Grounded on
// original_source/graph/state.py's ARCHETYPE_ALIASES/ASSET_CLASSES/
// RISK_LEVELS vocabulary, which backs the degraded keyword classifier
// used when the LLM call fails or times out.
package intent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/altirag/prism-rag/llm"
	"github.com/altirag/prism-rag/ragtypes"
)

// archetypeAliases mirrors the Python original's canonicalization
// table, trimmed to the alias keys needed for keyword matching.
var archetypeAliases = []string{
	"integrated best ideas", "ibi", "integrated",
	"impact 100", "impact", "100% impact",
	"climate sustainability", "climate",
}

var assetClassTerms = []string{
	"core fixed income", "tax-exempt fixed income", "diversified strategies",
	"global equity", "us equity", "international equity",
	"private equity", "private credit", "catalytic debt", "catalytic equity",
}

var riskLevelTerms = []string{"con", "bal", "mg", "gro", "ltg", "risk level", "risk tolerance", "volatility", "drawdown", "var", "value at risk"}

var monteCarloTerms = []string{"monte carlo", "simulation", "percentile", "probability of success"}

var esgTerms = []string{"esg", "environmental", "social", "governance", "sustainable", "sustainability"}

var formulaTerms = []string{"formula", "calculate", "methodology", "derive", "equation"}

// Classifier assigns an Intent to a query, preferring an LLM call and
// falling back to keyword matching when the LLM is unavailable or errors.
type Classifier struct {
	LLM     llm.Provider
	Timeout time.Duration
}

// NewClassifier creates a classifier. A nil llmProvider skips the LLM
// call entirely and always uses the keyword fallback.
func NewClassifier(llmProvider llm.Provider) *Classifier {
	return &Classifier{LLM: llmProvider, Timeout: 2 * time.Second}
}

const classifyPrompt = `Classify the following wealth-management question into exactly one of these tags: archetype, portfolio, risk, monte_carlo, esg, general.
Respond with only the tag, nothing else.

Question: %s`

// Classify returns the query's intent tag. It never returns an error —
// any LLM failure degrades silently to the keyword classifier, since
// intent tagging only selects a prompt template and must never block
// the pipeline.
func (c *Classifier) Classify(ctx context.Context, query string) ragtypes.Intent {
	if c.LLM != nil {
		cctx, cancel := context.WithTimeout(ctx, c.timeout())
		defer cancel()
		raw, err := c.LLM.GenerateCompletion(cctx, fmt.Sprintf(classifyPrompt, query))
		if err == nil {
			if tag := parseTag(raw); tag != "" {
				return tag
			}
		}
	}
	return classifyByKeyword(query)
}

func (c *Classifier) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return 2 * time.Second
}

func parseTag(raw string) ragtypes.Intent {
	t := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(t, "archetype"):
		return ragtypes.IntentArchetype
	case strings.Contains(t, "portfolio"):
		return ragtypes.IntentPortfolio
	case strings.Contains(t, "monte_carlo"), strings.Contains(t, "monte carlo"):
		return ragtypes.IntentMonteCarlo
	case strings.Contains(t, "risk"):
		return ragtypes.IntentRisk
	case strings.Contains(t, "esg"):
		return ragtypes.IntentESG
	case strings.Contains(t, "general"):
		return ragtypes.IntentGeneral
	default:
		return ""
	}
}

// classifyByKeyword is the degraded-mode classifier: a fixed-priority
// keyword table scan, checked in an order where more specific tags
// (monte_carlo, esg) are tested before the broader risk/portfolio tags.
func classifyByKeyword(query string) ragtypes.Intent {
	q := strings.ToLower(query)
	if containsAny(q, monteCarloTerms) {
		return ragtypes.IntentMonteCarlo
	}
	if containsAny(q, esgTerms) {
		return ragtypes.IntentESG
	}
	if containsAny(q, archetypeAliases) {
		return ragtypes.IntentArchetype
	}
	if containsAny(q, riskLevelTerms) {
		return ragtypes.IntentRisk
	}
	if containsAny(q, assetClassTerms) || strings.Contains(q, "portfolio") || strings.Contains(q, "allocation") {
		return ragtypes.IntentPortfolio
	}
	return ragtypes.IntentGeneral
}

// IsFormulaQuery reports whether a query is asking for a derivation or
// methodology, which triggers the generator's COMPONENTS/FORMULA/
// EXAMPLE/INTERPRETATION structure per spec.md §4.9.
func IsFormulaQuery(query string) bool {
	return containsAny(strings.ToLower(query), formulaTerms)
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
