// Package pipelineerr defines the sentinel errors that distinguish the
// handling each pipeline stage gets from the orchestrator: retry,
// soft-drop, fail fast, or route to fallback. Stages wrap one of these
// with %w; the orchestrator dispatches on errors.Is.
package pipelineerr

import "errors"

var (
	// ErrTransientLLM marks a single LLM call failure that is worth
	// retrying (timeout, rate limit, 5xx).
	ErrTransientLLM = errors.New("pipelineerr: transient llm failure")

	// ErrGraderFailed marks a single passage's grading call exhausting
	// its retries. The orchestrator soft-drops: the passage is kept as
	// irrelevant with zero confidence rather than failing the request.
	ErrGraderFailed = errors.New("pipelineerr: grader call failed")

	// ErrAllGradersFailed marks every passage in a request failing
	// grading. Generation proceeds ungraded with a poor quality signal.
	ErrAllGradersFailed = errors.New("pipelineerr: all graders failed")

	// ErrGeneratorFailed marks the generation call failing after retry.
	// The orchestrator returns a canned failure message and records a
	// circuit breaker failure.
	ErrGeneratorFailed = errors.New("pipelineerr: generator call failed")

	// ErrRetrieverEmpty marks a retrieval stage returning zero passages.
	// The orchestrator proceeds with empty context and a poor quality
	// signal rather than failing the request.
	ErrRetrieverEmpty = errors.New("pipelineerr: retriever returned no passages")

	// ErrDimensionMismatch marks a query vector whose dimensionality
	// does not match the configured embedding/vector store dimension.
	// This is fatal: fail fast, never silently truncate or pad.
	ErrDimensionMismatch = errors.New("pipelineerr: embedding dimension mismatch")

	// ErrDeadlineExceeded marks the request's overall deadline expiring
	// mid-pipeline. The orchestrator cancels in-flight work and returns
	// a timeout response.
	ErrDeadlineExceeded = errors.New("pipelineerr: request deadline exceeded")

	// ErrBreakerOpen marks the circuit breaker refusing a call. The
	// orchestrator routes the request to the fallback path.
	ErrBreakerOpen = errors.New("pipelineerr: circuit breaker open")

	// ErrInflightCapExceeded marks the global inflight-request cap being
	// full. Retryable by the caller.
	ErrInflightCapExceeded = errors.New("pipelineerr: inflight request cap exceeded")
)
