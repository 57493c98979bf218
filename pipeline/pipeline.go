package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/altirag/prism-rag/breaker"
	"github.com/altirag/prism-rag/cache"
	"github.com/altirag/prism-rag/config"
	"github.com/altirag/prism-rag/embedding"
	"github.com/altirag/prism-rag/expander"
	"github.com/altirag/prism-rag/fallback"
	"github.com/altirag/prism-rag/feedback"
	"github.com/altirag/prism-rag/fusion"
	"github.com/altirag/prism-rag/generator"
	"github.com/altirag/prism-rag/grader"
	"github.com/altirag/prism-rag/intent"
	"github.com/altirag/prism-rag/common/logger"
	"github.com/altirag/prism-rag/llm"
	"github.com/altirag/prism-rag/metrics"
	"github.com/altirag/prism-rag/pipelineerr"
	"github.com/altirag/prism-rag/quality"
	"github.com/altirag/prism-rag/rerank"
	"github.com/altirag/prism-rag/retriever"
	"github.com/altirag/prism-rag/schema"
	"github.com/altirag/prism-rag/vectordb"
)

// Pipeline wires every stage into the fixed sequence spec.md §2
// defines: cache -> intent -> hybrid retrieve -> optional expand ->
// parallel grade -> rerank -> quality -> generate, with a
// breaker-gated fallback substituted whenever the main path is
// unavailable or fails outright. Formerly orchestrator.Orchestrator;
// restructured around this nine-stage state machine instead of the
// teacher's DAG-planner pre-retrieve pipeline.
type Pipeline struct {
	runtime *config.PipelineRuntimeConfig

	cache      *cache.ResponseCache
	breakers   *breaker.Registry
	classifier *intent.Classifier
	vector     *retriever.VectorRetriever
	lexical    *retriever.LexicalIndex
	expander   *expander.Expander
	grader     *grader.Grader
	generator  *generator.Generator
	fallback   *fallback.Path
	feedback   *feedback.Sink

	lexicalDisabled bool
	rrfKappa        int

	inflight chan struct{}
}

// Deps bundles the concrete providers a Pipeline needs; New builds
// every stage from them so callers never touch the stage packages
// directly.
type Deps struct {
	Runtime *config.PipelineRuntimeConfig
	Embed   embedding.Provider
	Store   vectordb.VectorStoreProvider
	LLM     llm.Provider
	Lexical *retriever.LexicalIndex
	// LexicalDisabled drops the BM25 retriever from fusion, falling
	// back to semantic-only retrieval. Zero value (false) keeps
	// hybrid retrieval on, matching config.DefaultPipeline.
	LexicalDisabled bool
	// RRFKappa overrides Runtime.RRFKappa when positive.
	RRFKappa int
}

func New(d Deps) *Pipeline {
	rt := d.Runtime
	if rt == nil {
		rt = config.DefaultPipelineRuntime()
	}

	breakers := breaker.NewRegistry(rt.BreakerThreshold, rt.BreakerReset())
	llmBreaker := breakers.Get("llm")

	lexical := d.Lexical
	if lexical == nil {
		lexical = retriever.NewLexicalIndex()
	}

	rrfKappa := rt.RRFKappa
	if d.RRFKappa > 0 {
		rrfKappa = d.RRFKappa
	}

	p := &Pipeline{
		runtime:         rt,
		cache:           cache.New(rt.CacheMaxSize, rt.CacheTTL()),
		breakers:        breakers,
		classifier:      intent.NewClassifier(d.LLM),
		vector:          &retriever.VectorRetriever{Embed: d.Embed, Store: d.Store, TopK: rt.KRetrieve},
		lexical:         lexical,
		expander:        expander.New(d.LLM),
		grader:          grader.New(d.LLM, rt.GraderParallelism, rt.GraderTimeout()),
		generator:       generator.New(d.LLM, generator.NewRegistry(), llmBreaker),
		fallback:        fallback.New(d.Embed, d.Store, d.LLM),
		feedback:        feedback.NewSink(),
		lexicalDisabled: d.LexicalDisabled,
		rrfKappa:        rrfKappa,
		inflight:        make(chan struct{}, rt.InflightCap),
	}
	return p
}

// Feedback exposes the feedback sink so the transport layer can record
// user ratings against a query id.
func (p *Pipeline) Feedback() *feedback.Sink { return p.feedback }

// IndexDocument adds a document to the local lexical index so it
// participates in BM25 scoring alongside the vector store. Called
// from the ingestion tools whenever a chunk is added or removed.
func (p *Pipeline) IndexDocument(doc schema.Document) { p.lexical.Index(doc) }

func (p *Pipeline) RemoveDocument(docID string) { p.lexical.Remove(docID) }

// Run executes the full pipeline for q, falling back to the linear
// path when the main breaker is open or the main path returns an
// error. All graders failing is not a main-path error: runMain then
// proceeds ungraded.
func (p *Pipeline) Run(ctx context.Context, q Query) Result {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}

	select {
	case p.inflight <- struct{}{}:
		defer func() { <-p.inflight }()
	default:
		return Result{ID: q.ID, Endpoint: "rejected", Quality: QualityPoor, Error: pipelineerr.ErrInflightCapExceeded.Error()}
	}

	start := time.Now()
	mainBreaker := p.breakers.Get("main_pipeline")

	if cached, ok := p.cache.Get(q.Domain, q.PromptName, q.Text, q.AppContext); ok {
		metrics.IncCacheResult("hit")
		res := cached.(Result)
		res.CacheHit = true
		return res
	}
	metrics.IncCacheResult(cacheOutcome(q.AppContext))

	if !mainBreaker.Allow() {
		logger.Warnf("pipeline: main breaker open for query %s, using fallback", q.ID)
		return p.cacheAndReturn(q, p.runFallback(ctx, q, start))
	}

	cctx, cancel := context.WithTimeout(ctx, p.runtime.RequestDeadline())
	defer cancel()

	res, err := p.runMain(cctx, q, start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warnf("pipeline: %v for query %s, using fallback", pipelineerr.ErrDeadlineExceeded, q.ID)
		} else {
			logger.Warnf("pipeline: main path failed for query %s: %v, using fallback", q.ID, err)
		}
		mainBreaker.Record(false)
		return p.cacheAndReturn(q, p.runFallback(ctx, q, start))
	}
	mainBreaker.Record(true)

	metrics.IncQuality(string(res.Quality))
	metrics.ObserveRequest("main", start)
	res.Timings.Total = time.Since(start)

	return p.cacheAndReturn(q, res)
}

// cacheAndReturn applies spec.md §4.10's cache interaction rule — same
// write-through on every path, main or fallback — before returning res.
func (p *Pipeline) cacheAndReturn(q Query, res Result) Result {
	if len(q.AppContext) == 0 {
		p.cache.Set(q.Domain, q.PromptName, q.Text, q.AppContext, res, p.runtime.CacheTTL())
	}
	return res
}

func cacheOutcome(appContext map[string]interface{}) string {
	if len(appContext) > 0 {
		return "bypass"
	}
	return "miss"
}

func (p *Pipeline) runMain(ctx context.Context, q Query, start time.Time) (Result, error) {
	tag := p.classifier.Classify(ctx, q.Text)

	retrieveText := q.Text
	if p.runtime.ExpanderEnabled && shouldExpand(tag, q.Text) {
		if widened, _ := p.expander.Expand(ctx, q.Text); widened != q.Text {
			retrieveText = widened
		}
	}

	t0 := time.Now()
	candidates, err := p.retrieve(ctx, retrieveText)
	if err != nil {
		return Result{}, fmt.Errorf("retrieve: %w", err)
	}
	retrieveDur := time.Since(t0)

	// retriever-empty: proceed to the generator with empty context and
	// quality=poor rather than failing the request, per spec.md §7.
	if len(candidates) == 0 {
		logger.Warnf("pipeline: %v for query %s, generating with empty context", pipelineerr.ErrRetrieverEmpty, q.ID)
	}

	t1 := time.Now()
	var survivors []Passage
	var gradeDur, rerankDur time.Duration
	ungraded := false
	if len(candidates) > 0 {
		graded, gradeErr := p.grader.Grade(ctx, q.Text, candidates)
		gradeDur = time.Since(t1)
		if gradeErr != nil && errors.Is(gradeErr, pipelineerr.ErrAllGradersFailed) {
			// all-graders-failed: proceed ungraded with the top-k_rerank
			// candidates by fused score and quality=poor, per spec.md §7.
			// This is not a main-path failure, so no breaker penalty.
			logger.Warnf("pipeline: %v for query %s, proceeding ungraded", gradeErr, q.ID)
			survivors = topByFusedScore(candidates, p.runtime.KRerank)
			ungraded = true
		} else if gradeErr != nil {
			return Result{}, fmt.Errorf("grade: %w", gradeErr)
		} else {
			t2 := time.Now()
			survivors = rerank.Rerank(graded, rerank.Options{ConfidenceFloor: p.runtime.RerankConfidenceFloor, K: p.runtime.KRerank})
			rerankDur = time.Since(t2)
		}
	}

	decision := quality.Assess(survivors, p.runtime.QualityGoodConfidence)
	if ungraded {
		decision.Quality = QualityPoor
	}

	t3 := time.Now()
	answer, citations, err := p.generator.Generate(ctx, q, tag, decision.Quality, survivors)
	if err != nil {
		return Result{}, fmt.Errorf("generate: %w", err)
	}
	genDur := time.Since(t3)

	return Result{
		ID:        q.ID,
		Answer:    answer,
		Citations: citations,
		Quality:   decision.Quality,
		Intent:    tag,
		Endpoint:  "main",
		Timings: Timings{
			Retrieve: retrieveDur,
			Grade:    gradeDur,
			Rerank:   rerankDur,
			Generate: genDur,
		},
	}, nil
}

// topByFusedScore returns at most k candidates ordered by fused
// retrieval score descending, used when grading degrades entirely and
// the pipeline must proceed on unranked fused order alone.
func topByFusedScore(candidates []Passage, k int) []Passage {
	out := make([]Passage, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool { return out[i].FusedScore > out[j].FusedScore })
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

func (p *Pipeline) runFallback(ctx context.Context, q Query, start time.Time) Result {
	fctx, cancel := context.WithTimeout(ctx, p.runtime.FallbackDeadline())
	defer cancel()
	fq := Query{ID: q.ID, Text: q.Text, Domain: q.Domain, PromptName: q.PromptName, AppContext: q.AppContext, ThreadID: q.ThreadID}
	res := p.fallback.Run(fctx, fq)
	metrics.IncQuality(string(res.Quality))
	metrics.ObserveRequest("fallback", start)
	res.Timings.Total = time.Since(start)
	return res
}

// retrieve runs the semantic and lexical retrievers concurrently and
// fuses them with priority-boosted weighted RRF, per spec.md §4.3-4.4.
func (p *Pipeline) retrieve(ctx context.Context, text string) ([]Passage, error) {
	var semantic, lexical []schema.SearchResult
	var semErr, lexErr error

	semStart := time.Now()
	done := make(chan struct{}, 2)
	go func() {
		semantic, semErr = p.vector.Search(ctx, text, p.runtime.KRetrieve)
		metrics.ObserveRetriever("semantic", semStart, len(semantic))
		done <- struct{}{}
	}()
	if p.lexicalDisabled {
		done <- struct{}{}
	} else {
		lexStart := time.Now()
		go func() {
			lexical, lexErr = p.lexical.Search(ctx, text, p.runtime.KRetrieve)
			metrics.ObserveRetriever("lexical", lexStart, len(lexical))
			done <- struct{}{}
		}()
	}
	<-done
	<-done

	if semErr != nil && (lexErr != nil || p.lexicalDisabled) {
		return nil, fmt.Errorf("semantic: %v, lexical: %v", semErr, lexErr)
	}

	normalizeScores(semantic)
	normalizeScores(lexical)

	priorityByDoc := make(map[string]Priority, len(semantic)+len(lexical))
	collectPriorities(priorityByDoc, semantic)
	collectPriorities(priorityByDoc, lexical)

	lists := 1
	if len(lexical) > 0 {
		lists = 2
	}
	metrics.ObserveFusion(lists)

	fused := fusion.FuseHybrid(semantic, lexical, p.runtime.WSemantic, p.runtime.WBM25, p.rrfKappa, func(docID string) float64 {
		return PriorityBoost(priorityByDoc[docID])
	})

	return toPassages(fused, semantic, lexical), nil
}

func collectPriorities(out map[string]Priority, results []schema.SearchResult) {
	for _, r := range results {
		if v, ok := r.Document.Metadata["priority"].(string); ok && v != "" {
			out[r.Document.ID] = Priority(v)
		} else if _, exists := out[r.Document.ID]; !exists {
			out[r.Document.ID] = PriorityNormal
		}
	}
}

func normalizeScores(results []schema.SearchResult) {
	if len(results) == 0 {
		return
	}
	max := results[0].Score
	for _, r := range results {
		if r.Score > max {
			max = r.Score
		}
	}
	if max <= 0 {
		return
	}
	for i := range results {
		results[i].Score = results[i].Score / max
	}
}

func toPassages(fused, semantic, lexical []schema.SearchResult) []Passage {
	semScore := make(map[string]float64, len(semantic))
	for _, r := range semantic {
		semScore[r.Document.ID] = r.Score
	}
	lexScore := make(map[string]float64, len(lexical))
	for _, r := range lexical {
		lexScore[r.Document.ID] = r.Score
	}

	out := make([]Passage, 0, len(fused))
	for _, r := range fused {
		chunkIdx := 0
		if v, ok := r.Document.Metadata["chunk_index"].(int); ok {
			chunkIdx = v
		}
		priority := Priority("normal")
		if v, ok := r.Document.Metadata["priority"].(string); ok && v != "" {
			priority = Priority(v)
		}
		out = append(out, Passage{
			ID:            r.Document.ID,
			Text:          r.Document.Content,
			SourcePath:    r.Document.ID,
			ChunkIndex:    chunkIdx,
			Metadata:      r.Document.Metadata,
			Priority:      priority,
			SemanticScore: semScore[r.Document.ID],
			LexicalScore:  lexScore[r.Document.ID],
			FusedScore:    r.Score,
			Grade:         GradeUngraded,
		})
	}
	return out
}

// shouldExpand decides, before retrieval runs, whether a query is
// sparse enough for the lexical retriever to benefit from LLM-expanded
// terms: a short query outright, or one the classifier tagged general
// with few keywords. Per spec.md §4.5 this is evaluated on the query
// text and intent, never on a post-retrieval candidate count.
func shouldExpand(tag Intent, text string) bool {
	words := strings.Fields(text)
	if len(words) <= 4 {
		return true
	}
	return tag == IntentGeneral && len(words) <= 8
}
