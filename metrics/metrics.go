package metrics

import (
    "sync"
    "time"

    "github.com/prometheus/client_golang/prometheus"
)

// Retrieval-stage collectors: latency and result-set size per retriever
// type (semantic, lexical), plus how many result lists went into a
// fusion call. Observed from pipeline.Pipeline.retrieve.
var (
    once sync.Once

    retrieverLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
        Name:    "rag_retriever_latency_ms",
        Help:    "Latency of retriever calls in milliseconds",
        Buckets: []float64{10, 25, 50, 75, 100, 150, 200, 300, 500, 800, 1200},
    }, []string{"type"})

    retrieverResults = prometheus.NewHistogramVec(prometheus.HistogramOpts{
        Name:    "rag_retriever_results",
        Help:    "Number of results returned by a retriever",
        Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
    }, []string{"type"})

    fusionLists = prometheus.NewHistogram(prometheus.HistogramOpts{
        Name:    "rag_fusion_input_lists",
        Help:    "Number of lists fused per query",
        Buckets: []float64{0, 1, 2, 3, 4, 5, 8, 12},
    })
)

func ensureRegistered() {
    once.Do(func() {
        prometheus.MustRegister(retrieverLatency, retrieverResults, fusionLists)
    })
}

// ObserveRetriever records latency and result size for a retriever type.
func ObserveRetriever(typ string, start time.Time, results int) {
    ensureRegistered()
    dur := time.Since(start).Milliseconds()
    retrieverLatency.WithLabelValues(typ).Observe(float64(dur))
    retrieverResults.WithLabelValues(typ).Observe(float64(results))
}

// ObserveFusion records how many lists were fused.
func ObserveFusion(n int) {
    ensureRegistered()
    fusionLists.Observe(float64(n))
}

// Collectors exposes all collectors for external registration with a custom registry.
func Collectors() []prometheus.Collector {
    return []prometheus.Collector{
        retrieverLatency, retrieverResults, fusionLists,
    }
}
