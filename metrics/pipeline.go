package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline-stage collectors follow the same lazily-registered,
// package-level-var pattern as the retrieval collectors above, scoped
// to the staged query pipeline's own metric names.
var (
	pipelineOnce sync.Once

	graderLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rag_pipeline_grader_latency_ms",
		Help:    "Latency of the parallel grading stage in milliseconds",
		Buckets: []float64{50, 100, 250, 500, 1000, 2000, 3000, 5000},
	})

	graderSoftDrops = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rag_pipeline_grader_soft_drops_total",
		Help: "Passages soft-dropped after grading retries were exhausted",
	})

	cacheResult = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rag_pipeline_cache_total",
		Help: "Response cache lookups by outcome",
	}, []string{"outcome"}) // hit | miss | bypass

	breakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rag_pipeline_breaker_state",
		Help: "Circuit breaker state (0=closed,1=half_open,2=open)",
	}, []string{"name"})

	qualityOutcome = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rag_pipeline_quality_total",
		Help: "Quality ordinal assigned per query",
	}, []string{"quality"})

	endpointUsed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rag_pipeline_endpoint_total",
		Help: "Requests served by endpoint (main vs fallback)",
	}, []string{"endpoint"})

	requestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rag_pipeline_request_latency_ms",
		Help:    "End-to-end request latency by endpoint",
		Buckets: []float64{100, 250, 500, 1000, 2000, 4000, 6000, 8000, 12000, 16000},
	}, []string{"endpoint"})
)

func ensurePipelineRegistered() {
	pipelineOnce.Do(func() {
		prometheus.MustRegister(graderLatency, graderSoftDrops, cacheResult, breakerState, qualityOutcome, endpointUsed, requestLatency)
	})
}

func ObserveGrader(start time.Time, softDrops int) {
	ensurePipelineRegistered()
	graderLatency.Observe(float64(time.Since(start).Milliseconds()))
	if softDrops > 0 {
		graderSoftDrops.Add(float64(softDrops))
	}
}

func IncCacheResult(outcome string) {
	ensurePipelineRegistered()
	cacheResult.WithLabelValues(outcome).Inc()
}

// SetBreakerState reports a breaker's current state as a gauge, so a
// dashboard can alert on sustained open/half-open periods.
func SetBreakerState(name string, state int) {
	ensurePipelineRegistered()
	breakerState.WithLabelValues(name).Set(float64(state))
}

func IncQuality(quality string) {
	ensurePipelineRegistered()
	qualityOutcome.WithLabelValues(quality).Inc()
}

func ObserveRequest(endpoint string, start time.Time) {
	ensurePipelineRegistered()
	endpointUsed.WithLabelValues(endpoint).Inc()
	requestLatency.WithLabelValues(endpoint).Observe(float64(time.Since(start).Milliseconds()))
}

// PipelineCollectors exposes the pipeline-stage collectors for
// external registration with a custom registry.
func PipelineCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		graderLatency, graderSoftDrops, cacheResult, breakerState, qualityOutcome, endpointUsed, requestLatency,
	}
}
