package metrics

import "github.com/prometheus/client_golang/prometheus"

// Engine Prometheus metrics.
var (
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "schemedex",
			Name:      "search_duration_seconds",
			Help:      "Retrieval engine search duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"mode"},
	)

	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "schemedex",
			Name:      "searches_total",
			Help:      "Total number of searches",
		},
		[]string{"mode"},
	)

	ZeroNormQueriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "schemedex",
			Name:      "zero_norm_queries_total",
			Help:      "Queries whose embedding had zero norm (degraded to empty result)",
		},
	)

	CorpusSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "schemedex",
			Name:      "corpus_size",
			Help:      "Number of documents in the index",
		},
	)

	ResultCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "schemedex",
			Name:      "result_cache_total",
			Help:      "Search result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

// RegisterEngineMetrics registers engine metrics with the default registry.
// Called once from the composition root (no init()).
func RegisterEngineMetrics() {
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(ZeroNormQueriesTotal)
	prometheus.MustRegister(CorpusSize)
	prometheus.MustRegister(ResultCacheTotal)
}
