// Package grader fans a candidate passage list out to the LLM for a
// per-passage relevance verdict, bounded by a worker pool and retried
// with jittered exponential backoff. Grounded on post/rerank.go's
// LLMReranker scoring loop, restructured from LLMReranker's sequential
// for-loop into the bounded-parallel fan-out spec.md §4.6 calls for,
// using golang.org/x/sync/errgroup the way retrieval/provider.go and
// orchestrator/orchestrator.go fan out concurrent work, plus
// cenkalti/backoff/v5 for the per-call retry schedule.
package grader

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"

	"github.com/altirag/prism-rag/common/logger"
	"github.com/altirag/prism-rag/llm"
	"github.com/altirag/prism-rag/pipelineerr"
	"github.com/altirag/prism-rag/ragtypes"
)

const systemPrompt = `You are an expert at evaluating document relevance for search queries.
Rate the document's relevance to the query as one of: relevant, partial, irrelevant.
Then give a confidence between 0.0 and 1.0 for that grade.

Respond with exactly two lines:
grade: <relevant|partial|irrelevant>
confidence: <0.0-1.0>`

// Grader grades passages concurrently with a bounded worker pool.
type Grader struct {
	LLM         llm.Provider
	Parallelism int
	Timeout     time.Duration
	MaxRetries  int
}

func New(llmProvider llm.Provider, parallelism int, timeout time.Duration) *Grader {
	if parallelism <= 0 {
		parallelism = 16
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Grader{LLM: llmProvider, Parallelism: parallelism, Timeout: timeout, MaxRetries: 2}
}

// Grade grades every candidate concurrently, capped at g.Parallelism
// in-flight calls. It returns an error only when every candidate's
// grading exhausted retries — a partial failure soft-drops the failed
// passages (grade=irrelevant, confidence=0) rather than failing the
// stage, per spec.md §4.6 and the error-taxonomy's distinction between
// "grader-failed" (one passage) and "all-graders-failed" (the stage).
func (g *Grader) Grade(ctx context.Context, query string, candidates []ragtypes.Passage) ([]ragtypes.Passage, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}
	out := make([]ragtypes.Passage, len(candidates))
	copy(out, candidates)

	sem := make(chan struct{}, g.Parallelism)
	grp, gctx := errgroup.WithContext(ctx)
	var successCount int64

	for i := range out {
		i := i
		grp.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			grade, confidence, err := g.gradeOne(gctx, query, out[i].Text)
			if err != nil {
				logger.Warnf("grader: passage %s exhausted retries: %v", out[i].ID, err)
				out[i].Grade = ragtypes.GradeIrrelevant
				out[i].GradeConfidence = 0
				return nil
			}
			out[i].Grade = grade
			out[i].GradeConfidence = confidence
			atomic.AddInt64(&successCount, 1)
			return nil
		})
	}
	_ = grp.Wait()

	if successCount == 0 {
		return out, fmt.Errorf("grader: all %d candidates failed grading: %w", len(out), pipelineerr.ErrAllGradersFailed)
	}
	return out, nil
}

func (g *Grader) gradeOne(ctx context.Context, query, text string) (ragtypes.Grade, float64, error) {
	if g.LLM == nil {
		return ragtypes.GradeUngraded, 0, fmt.Errorf("grader: no llm provider configured")
	}
	prompt := fmt.Sprintf("%s\n\nQuery: %s\nDocument:\n%s\n", systemPrompt, query, text)

	op := func() (string, error) {
		cctx, cancel := context.WithTimeout(ctx, g.Timeout)
		defer cancel()
		resp, err := g.LLM.GenerateCompletion(cctx, prompt)
		if err != nil {
			return "", fmt.Errorf("%w: %v", pipelineerr.ErrTransientLLM, err)
		}
		return resp, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.RandomizationFactor = 0.25
	bo.Multiplier = 2.0

	resp, err := backoff.Retry(ctx, op, backoff.WithBackOff(bo), backoff.WithMaxTries(uint(g.MaxRetries+1)))
	if err != nil {
		return ragtypes.GradeUngraded, 0, fmt.Errorf("%w: %v", pipelineerr.ErrGraderFailed, err)
	}
	return parseVerdict(resp)
}

var gradeLineRe = regexp.MustCompile(`(?i)grade\s*:\s*(relevant|partial|irrelevant)`)
var confidenceLineRe = regexp.MustCompile(`(?i)confidence\s*:\s*([0-9]*\.?[0-9]+)`)

func parseVerdict(resp string) (ragtypes.Grade, float64, error) {
	gm := gradeLineRe.FindStringSubmatch(resp)
	if gm == nil {
		return ragtypes.GradeUngraded, 0, fmt.Errorf("grader: could not parse grade from %q", strings.TrimSpace(resp))
	}
	grade := ragtypes.Grade(strings.ToLower(gm[1]))

	confidence := 0.5
	if cm := confidenceLineRe.FindStringSubmatch(resp); cm != nil {
		if v, err := strconv.ParseFloat(cm[1], 64); err == nil {
			confidence = v
		}
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return grade, confidence, nil
}
