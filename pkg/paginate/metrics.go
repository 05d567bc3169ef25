package paginate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for collection fetch operations.
var (
	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collection_fetches_total",
		Help: "Total page fetches by result",
	}, []string{"result"})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "collection_fetch_duration_seconds",
		Help:    "Page fetch duration in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	})

	staleResultsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collection_stale_results_total",
		Help: "Fetch completions discarded because the controller was reset mid-flight",
	})

	resetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collection_resets_total",
		Help: "Full controller resets caused by parameter changes",
	})

	itemsAppendedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collection_items_appended_total",
		Help: "Items appended to collections by successful fetches",
	})
)
