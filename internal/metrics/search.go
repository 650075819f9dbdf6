package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and cache Prometheus metrics.
var (
	PageCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "miran",
			Name:      "page_cache_total",
			Help:      "Page cache lookups by operation and result",
		},
		[]string{"op", "result"}, // result: "hit" / "miss" / "error"
	)

	PageCacheInvalidatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "miran",
			Name:      "page_cache_invalidated_keys_total",
			Help:      "Page cache keys removed by invalidation",
		},
		[]string{"scope"},
	)

	RankDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "miran",
			Name:      "rank_duration_seconds",
			Help:      "Ranking duration in seconds by candidate leg",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"leg"}, // "substring" / "trigram" / "total"
	)

	RankCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "miran",
			Name:      "rank_candidates",
			Help:      "Size of the merged ranked set per search",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 9),
		},
	)

	SimilarityTruncatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "miran",
			Name:      "similarity_truncated_total",
			Help:      "Searches whose similarity candidates reached max_candidates",
		},
	)

	CatalogErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "miran",
			Name:      "catalog_errors_total",
			Help:      "Catalog failures by operation",
		},
		[]string{"op"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search and cache metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(PageCacheTotal)
	prometheus.MustRegister(PageCacheInvalidatedTotal)
	prometheus.MustRegister(RankDuration)
	prometheus.MustRegister(RankCandidates)
	prometheus.MustRegister(SimilarityTruncatedTotal)
	prometheus.MustRegister(CatalogErrorsTotal)
	searchMetricsRegistered = true
}
