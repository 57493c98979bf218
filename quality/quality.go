// Package quality derives the coarse retrieval-confidence ordinal
// returned alongside every answer. Grounded on gating/provider.go's
// Decision value (a small verdict struct carrying a score and a
// reason), trimmed to the three-way ordinal spec.md §4.8 defines.
package quality

import "github.com/altirag/prism-rag/ragtypes"

// Decision is the quality-stage output: the ordinal plus the signal
// that produced it, useful for logging and metrics.
type Decision struct {
	Quality      ragtypes.Quality
	SurvivorN    int
	TopConfidence float64
	Reason       string
}

// Assess derives the quality ordinal from the survivor list:
//   - zero survivors -> poor
//   - at least one survivor whose top confidence is >= goodFloor -> good
//   - otherwise -> ambiguous
func Assess(survivors []ragtypes.Passage, goodFloor float64) Decision {
	if goodFloor <= 0 {
		goodFloor = 0.7
	}
	if len(survivors) == 0 {
		return Decision{Quality: ragtypes.QualityPoor, SurvivorN: 0, Reason: "no_survivors"}
	}
	top := survivors[0].GradeConfidence
	for _, s := range survivors {
		if s.GradeConfidence > top {
			top = s.GradeConfidence
		}
	}
	if top >= goodFloor {
		return Decision{Quality: ragtypes.QualityGood, SurvivorN: len(survivors), TopConfidence: top, Reason: "top_confidence_above_floor"}
	}
	return Decision{Quality: ragtypes.QualityAmbiguous, SurvivorN: len(survivors), TopConfidence: top, Reason: "top_confidence_below_floor"}
}
