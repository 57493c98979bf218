package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestIncCacheResult_IncrementsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(cacheResult.WithLabelValues("hit"))
	IncCacheResult("hit")
	after := testutil.ToFloat64(cacheResult.WithLabelValues("hit"))
	assert.Equal(t, before+1, after)
}

func TestIncQuality_IncrementsByQuality(t *testing.T) {
	before := testutil.ToFloat64(qualityOutcome.WithLabelValues("good"))
	IncQuality("good")
	after := testutil.ToFloat64(qualityOutcome.WithLabelValues("good"))
	assert.Equal(t, before+1, after)
}

func TestObserveRequest_IncrementsEndpointCounter(t *testing.T) {
	before := testutil.ToFloat64(endpointUsed.WithLabelValues("main"))
	ObserveRequest("main", time.Now().Add(-10*time.Millisecond))
	after := testutil.ToFloat64(endpointUsed.WithLabelValues("main"))
	assert.Equal(t, before+1, after)
}

func TestSetBreakerState_SetsGaugeValue(t *testing.T) {
	SetBreakerState("llm", 2)
	assert.Equal(t, float64(2), testutil.ToFloat64(breakerState.WithLabelValues("llm")))
	SetBreakerState("llm", 0)
	assert.Equal(t, float64(0), testutil.ToFloat64(breakerState.WithLabelValues("llm")))
}

func TestObserveGrader_RecordsSoftDrops(t *testing.T) {
	before := testutil.ToFloat64(graderSoftDrops)
	ObserveGrader(time.Now().Add(-5*time.Millisecond), 3)
	after := testutil.ToFloat64(graderSoftDrops)
	assert.Equal(t, before+3, after)
}

func TestPipelineCollectors_ReturnsAllCollectors(t *testing.T) {
	collectors := PipelineCollectors()
	assert.Len(t, collectors, 7)
}
