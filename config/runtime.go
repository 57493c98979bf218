package config

import "time"

// PipelineRuntimeConfig holds the stage parameters for the query
// pipeline (cache, breaker, retrieval, grading, generation). It follows
// the same json/yaml tagging and DefaultXxx() convention as
// PipelineConfig.
type PipelineRuntimeConfig struct {
	KRetrieve         int     `json:"k_retrieve,omitempty" yaml:"k_retrieve,omitempty"`
	KRerank           int     `json:"k_rerank,omitempty" yaml:"k_rerank,omitempty"`
	WSemantic         float64 `json:"w_semantic,omitempty" yaml:"w_semantic,omitempty"`
	WBM25             float64 `json:"w_bm25,omitempty" yaml:"w_bm25,omitempty"`
	RRFKappa          int     `json:"rrf_kappa,omitempty" yaml:"rrf_kappa,omitempty"`
	GraderParallelism int     `json:"grader_parallelism,omitempty" yaml:"grader_parallelism,omitempty"`
	GraderTimeoutMs   int     `json:"grader_timeout_ms,omitempty" yaml:"grader_timeout_ms,omitempty"`
	GeneratorTimeoutMs int    `json:"generator_timeout_ms,omitempty" yaml:"generator_timeout_ms,omitempty"`
	RequestDeadlineMs int     `json:"request_deadline_ms,omitempty" yaml:"request_deadline_ms,omitempty"`
	FallbackDeadlineMs int    `json:"fallback_deadline_ms,omitempty" yaml:"fallback_deadline_ms,omitempty"`

	CacheEnabled bool `json:"cache_enabled,omitempty" yaml:"cache_enabled,omitempty"`
	CacheTTLS    int  `json:"cache_ttl_s,omitempty" yaml:"cache_ttl_s,omitempty"`
	CacheMaxSize int  `json:"cache_max_size,omitempty" yaml:"cache_max_size,omitempty"`

	BreakerThreshold int `json:"breaker_threshold,omitempty" yaml:"breaker_threshold,omitempty"`
	BreakerResetS    int `json:"breaker_reset_s,omitempty" yaml:"breaker_reset_s,omitempty"`

	InflightCap     int  `json:"inflight_cap,omitempty" yaml:"inflight_cap,omitempty"`
	ExpanderEnabled bool `json:"expander_enabled,omitempty" yaml:"expander_enabled,omitempty"`

	RerankConfidenceFloor float64 `json:"rerank_confidence_floor,omitempty" yaml:"rerank_confidence_floor,omitempty"`
	QualityGoodConfidence float64 `json:"quality_good_confidence,omitempty" yaml:"quality_good_confidence,omitempty"`
}

// DefaultPipelineRuntime returns spec-default stage parameters.
func DefaultPipelineRuntime() *PipelineRuntimeConfig {
	return &PipelineRuntimeConfig{
		KRetrieve:             10,
		KRerank:               5,
		WSemantic:             0.6,
		WBM25:                 0.4,
		RRFKappa:              60,
		GraderParallelism:     16,
		GraderTimeoutMs:       3000,
		GeneratorTimeoutMs:    8000,
		RequestDeadlineMs:     15000,
		FallbackDeadlineMs:    5000,
		CacheEnabled:          true,
		CacheTTLS:             3600,
		CacheMaxSize:          1000,
		BreakerThreshold:      5,
		BreakerResetS:         60,
		InflightCap:           32,
		ExpanderEnabled:       true,
		RerankConfidenceFloor: 0.3,
		QualityGoodConfidence: 0.7,
	}
}

func (c *PipelineRuntimeConfig) RequestDeadline() time.Duration {
	return time.Duration(c.RequestDeadlineMs) * time.Millisecond
}

func (c *PipelineRuntimeConfig) FallbackDeadline() time.Duration {
	return time.Duration(c.FallbackDeadlineMs) * time.Millisecond
}

func (c *PipelineRuntimeConfig) GraderTimeout() time.Duration {
	return time.Duration(c.GraderTimeoutMs) * time.Millisecond
}

func (c *PipelineRuntimeConfig) GeneratorTimeout() time.Duration {
	return time.Duration(c.GeneratorTimeoutMs) * time.Millisecond
}

func (c *PipelineRuntimeConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLS) * time.Second
}

func (c *PipelineRuntimeConfig) BreakerReset() time.Duration {
	return time.Duration(c.BreakerResetS) * time.Second
}
