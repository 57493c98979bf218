package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPipelineRuntime_ValuesMatchSpecDefaults(t *testing.T) {
	rt := DefaultPipelineRuntime()
	assert.Equal(t, 10, rt.KRetrieve)
	assert.Equal(t, 5, rt.KRerank)
	assert.InDelta(t, 0.6, rt.WSemantic, 1e-9)
	assert.InDelta(t, 0.4, rt.WBM25, 1e-9)
	assert.True(t, rt.CacheEnabled)
	assert.True(t, rt.ExpanderEnabled)
}

func TestPipelineRuntimeConfig_DurationHelpersConvertUnits(t *testing.T) {
	rt := &PipelineRuntimeConfig{
		RequestDeadlineMs:  1500,
		FallbackDeadlineMs: 2500,
		GraderTimeoutMs:    3000,
		GeneratorTimeoutMs: 4000,
		CacheTTLS:          60,
		BreakerResetS:      30,
	}
	assert.Equal(t, 1500*time.Millisecond, rt.RequestDeadline())
	assert.Equal(t, 2500*time.Millisecond, rt.FallbackDeadline())
	assert.Equal(t, 3000*time.Millisecond, rt.GraderTimeout())
	assert.Equal(t, 4000*time.Millisecond, rt.GeneratorTimeout())
	assert.Equal(t, 60*time.Second, rt.CacheTTL())
	assert.Equal(t, 30*time.Second, rt.BreakerReset())
}
