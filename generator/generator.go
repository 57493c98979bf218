package generator

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/altirag/prism-rag/breaker"
	"github.com/altirag/prism-rag/common/logger"
	"github.com/altirag/prism-rag/intent"
	"github.com/altirag/prism-rag/llm"
	"github.com/altirag/prism-rag/pipelineerr"
	"github.com/altirag/prism-rag/ragtypes"
)

const unavailableAnswer = "I'm unable to generate a response right now. Please try again shortly."

// MaxAnswerWords enforces the brevity contract: answers must not
// exceed this many words, per spec.md §4.9.
const MaxAnswerWords = 80

// poorQualityDisclaimer is prepended to the answer whenever the
// quality signal is poor. The generator still runs, so the caller
// gets a grounded best-effort reply rather than a bare refusal.
const poorQualityDisclaimer = "I don't have enough information to answer precisely;"

// Generator renders the final answer from the survivor passage list.
type Generator struct {
	LLM      llm.Provider
	Registry *Registry
	Breaker  *breaker.Breaker
	enc      *tiktoken.Tiktoken
}

func New(llmProvider llm.Provider, reg *Registry, br *breaker.Breaker) *Generator {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		logger.Warnf("generator: tiktoken encoding unavailable, falling back to word-count budgeting: %v", err)
		enc = nil
	}
	return &Generator{LLM: llmProvider, Registry: reg, Breaker: br, enc: enc}
}

// Generate renders the prompt for the survivor set and calls the LLM.
// appContext, when non-empty, triggers the deterministic context
// injection rewrite before the template is rendered. quality gates the
// poor-quality disclaimer: the generator still runs either way, but a
// poor signal gets the disclaimer prepended to its answer. The
// returned answer has its citations renumbered sequentially 1..k
// against the survivor order and is truncated to MaxAnswerWords.
func (g *Generator) Generate(ctx context.Context, q ragtypes.Query, tag ragtypes.Intent, quality ragtypes.Quality, survivors []ragtypes.Passage) (string, []ragtypes.Citation, error) {
	if g.Breaker != nil && !g.Breaker.Allow() {
		return unavailableAnswer, nil, fmt.Errorf("generator: %w", pipelineerr.ErrBreakerOpen)
	}

	tmpl, ok := g.Registry.Get(q.PromptName, string(tag))
	if !ok {
		return unavailableAnswer, nil, fmt.Errorf("generator: no template resolved")
	}

	contextBlock, citations := buildContext(survivors)
	queryText := q.Text
	if len(q.AppContext) > 0 {
		queryText = injectAppContext(q.Text, q.AppContext)
	}
	if intent.IsFormulaQuery(q.Text) {
		tmpl = withFormulaNote(tmpl)
	}

	prompt := tmpl.Render(contextBlock, queryText)
	prompt = g.budgetPrompt(prompt)

	if g.LLM == nil {
		if g.Breaker != nil {
			g.Breaker.Record(false)
		}
		return unavailableAnswer, nil, fmt.Errorf("generator: no llm provider configured")
	}

	raw, err := g.LLM.GenerateCompletion(ctx, prompt)
	if err != nil {
		if g.Breaker != nil {
			g.Breaker.Record(false)
		}
		return unavailableAnswer, nil, fmt.Errorf("generator: completion failed: %w: %v", pipelineerr.ErrGeneratorFailed, err)
	}
	if g.Breaker != nil {
		g.Breaker.Record(true)
	}

	if quality == ragtypes.QualityPoor {
		raw = poorQualityDisclaimer + " " + raw
	}

	answer := enforceBrevity(raw, MaxAnswerWords)
	answer, order := renumberCitations(answer, len(citations))
	return answer, filterCitations(citations, order), nil
}

func buildContext(survivors []ragtypes.Passage) (string, []ragtypes.Citation) {
	var b strings.Builder
	citations := make([]ragtypes.Citation, 0, len(survivors))
	for i, p := range survivors {
		n := i + 1
		fmt.Fprintf(&b, "[%d] %s\n\n", n, p.Text)
		citations = append(citations, ragtypes.Citation{SourcePath: p.SourcePath, ChunkIndex: p.ChunkIndex, Score: p.FusedScore})
	}
	return b.String(), citations
}

// injectAppContext deterministically prepends the caller-supplied
// app_context as a labeled preamble, rather than letting the LLM
// free-associate from an unlabeled blob — the same "your" framing the
// cited interpreter templates use.
func injectAppContext(query string, appContext map[string]interface{}) string {
	var b strings.Builder
	b.WriteString("The user is viewing the following data in their dashboard:\n")
	keys := make([]string, 0, len(appContext))
	for k := range appContext {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, formatAppContextValue(appContext[k]))
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(query)
	return b.String()
}

// formatAppContextValue renders a dashboard value the way a human
// would read it. Go's %v falls back to %g for float64, which renders
// round dashboard figures like 2500000 as "2.5e+06" — wrong for a
// balance or a percentile the LLM is meant to quote back verbatim.
func formatAppContextValue(v interface{}) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	default:
		return fmt.Sprintf("%v", n)
	}
}

func withFormulaNote(t Template) Template {
	t.Body = t.Body + "\n\nThe query requests a derivation. Respond with COMPONENTS, FORMULA, EXAMPLE, and INTERPRETATION sections in that order."
	return t
}

// budgetPrompt cuts the rendered prompt down to a conservative token
// budget, using tiktoken-go when available and a word-count proxy
// otherwise. It keeps the prompt's leading tokens: when the budget is
// exceeded, everything after the cut point is dropped, including the
// query and answer cue that follow the context block in every
// template; the context block is not trimmed on its own.
func (g *Generator) budgetPrompt(prompt string) string {
	const maxTokens = 6000
	if g.enc == nil {
		words := strings.Fields(prompt)
		if len(words) > maxTokens {
			return strings.Join(words[:maxTokens], " ")
		}
		return prompt
	}
	tokens := g.enc.Encode(prompt, nil, nil)
	if len(tokens) <= maxTokens {
		return prompt
	}
	return g.enc.Decode(tokens[:maxTokens])
}

var wsRe = regexp.MustCompile(`\s+`)

func enforceBrevity(answer string, maxWords int) string {
	answer = strings.TrimSpace(answer)
	words := wsRe.Split(answer, -1)
	if len(words) <= maxWords {
		return answer
	}
	return strings.Join(words[:maxWords], " ")
}

var citationRe = regexp.MustCompile(`\[(\d+)\]`)

// renumberCitations walks the answer's [n] markers in order of first
// appearance and rewrites them to sequential 1..k, since brevity
// truncation or generation may drop references to some sources, or
// cite them out of order. Returns the rewritten answer and order,
// where order[j] is the original 1-based citation index that the new
// marker [j+1] now refers to — callers use order to reindex the
// citations slice so citations[j] still lines up with [j+1] in the
// rewritten text.
func renumberCitations(answer string, total int) (string, []int) {
	order := []int{}
	seen := make(map[int]int) // original -> new

	rewritten := citationRe.ReplaceAllStringFunc(answer, func(m string) string {
		sub := citationRe.FindStringSubmatch(m)
		n, err := strconv.Atoi(sub[1])
		if err != nil || n < 1 || n > total {
			return m
		}
		if _, ok := seen[n]; !ok {
			order = append(order, n)
			seen[n] = len(order)
		}
		return fmt.Sprintf("[%d]", seen[n])
	})
	return rewritten, order
}

// filterCitations reorders all (indexed by original survivor position)
// into the sequence the renumbered [n] markers now appear in, so the
// returned slice's index i corresponds to marker [i+1].
func filterCitations(all []ragtypes.Citation, order []int) []ragtypes.Citation {
	out := make([]ragtypes.Citation, 0, len(order))
	for _, origIdx := range order {
		if origIdx >= 1 && origIdx <= len(all) {
			out = append(out, all[origIdx-1])
		}
	}
	return out
}
