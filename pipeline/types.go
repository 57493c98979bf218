// Package pipeline implements the staged retrieve-grade-generate state
// machine: cache lookup, intent classification, hybrid retrieval, query
// expansion, parallel grading, reranking, quality scoring, generation,
// and the breaker-gated fallback path.
//
// The data model itself lives in package ragtypes so that the stage
// packages this file wires together (intent, grader, rerank, quality,
// generator, fallback) can depend on the shared types without an
// import cycle back through this package. The aliases below let the
// rest of this package refer to them unqualified.
package pipeline

import "github.com/altirag/prism-rag/ragtypes"

type Grade = ragtypes.Grade

const (
	GradeRelevant   = ragtypes.GradeRelevant
	GradePartial    = ragtypes.GradePartial
	GradeIrrelevant = ragtypes.GradeIrrelevant
	GradeUngraded   = ragtypes.GradeUngraded
)

type Priority = ragtypes.Priority

const (
	PriorityCritical = ragtypes.PriorityCritical
	PriorityHigh     = ragtypes.PriorityHigh
	PriorityNormal   = ragtypes.PriorityNormal
	PriorityLow      = ragtypes.PriorityLow
)

var PriorityBoost = ragtypes.PriorityBoost

type Quality = ragtypes.Quality

const (
	QualityGood      = ragtypes.QualityGood
	QualityAmbiguous = ragtypes.QualityAmbiguous
	QualityPoor      = ragtypes.QualityPoor
)

type Intent = ragtypes.Intent

const (
	IntentArchetype  = ragtypes.IntentArchetype
	IntentPortfolio  = ragtypes.IntentPortfolio
	IntentRisk       = ragtypes.IntentRisk
	IntentMonteCarlo = ragtypes.IntentMonteCarlo
	IntentESG        = ragtypes.IntentESG
	IntentGeneral    = ragtypes.IntentGeneral
)

type Query = ragtypes.Query
type Passage = ragtypes.Passage
type Citation = ragtypes.Citation
type Timings = ragtypes.Timings
type Result = ragtypes.Result
type State = ragtypes.State
