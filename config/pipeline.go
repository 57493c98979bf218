package config

// PipelineConfig holds the optional pipeline-level settings that sit
// above PipelineRuntimeConfig's per-stage parameters: whether the
// lexical retriever participates in hybrid fusion, the reciprocal-rank
// fusion k override, and the conversation-session store.
type PipelineConfig struct {
	// EnableHybrid gates whether the lexical (BM25) retriever
	// participates in fusion; false falls back to semantic-only
	// retrieval. Defaults to true when Pipeline itself is nil.
	EnableHybrid bool `json:"enable_hybrid,omitempty" yaml:"enable_hybrid,omitempty"`
	// RRFK overrides PipelineRuntimeConfig.RRFKappa's fusion k when
	// positive; typical default 60.
	RRFK int `json:"rrf_k,omitempty" yaml:"rrf_k,omitempty"`
	// Session controls the conversation-session store thread_id is
	// recorded against. If nil or Store is "inmemory", use the
	// in-memory store.
	Session *SessionConfig `json:"session,omitempty" yaml:"session,omitempty"`
}

// SessionConfig controls session persistence.
// Store: "inmemory" (default) or "redis".
// Redis: map with keys {addr,password,db}
type SessionConfig struct {
	Store      string                 `json:"store,omitempty" yaml:"store,omitempty"`
	TTLSeconds int                    `json:"ttl_seconds,omitempty" yaml:"ttl_seconds,omitempty"`
	Redis      map[string]interface{} `json:"redis,omitempty" yaml:"redis,omitempty"`
}

// DefaultPipeline returns the pipeline defaults the server ships with:
// hybrid retrieval on, the teacher's RRF k, and an in-memory session
// store with a one-day TTL.
func DefaultPipeline() *PipelineConfig {
	return &PipelineConfig{
		EnableHybrid: true,
		RRFK:         60,
		Session:      &SessionConfig{Store: "inmemory", TTLSeconds: 86400},
	}
}
