// Package metrics provides the centralized Prometheus metrics registry for
// the collection library. All metrics are defined in their respective
// packages (paginate, anchor, rediscache) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the collection
// library. All metrics are automatically registered via promauto in their
// respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Pagination Metrics (pkg/paginate):
//   - collection_fetches_total{result} (Counter): Page fetches by result (success, error)
//   - collection_fetch_duration_seconds (Histogram): Page fetch duration
//   - collection_stale_results_total (Counter): Fetch completions discarded after a reset
//   - collection_resets_total (Counter): Full collection resets from parameter changes
//   - collection_items_appended_total (Counter): Items appended across all fetches
//
// Anchor Metrics (pkg/anchor):
//   - collection_scroll_restores_total{mode} (Counter): Scroll restorations by mode (snap, free)
//
// Page Cache Metrics (pkg/source/rediscache):
//   - collection_page_cache_hits_total (Counter): Pages served from Redis
//   - collection_page_cache_misses_total (Counter): Pages fetched from the inner source
//   - collection_page_cache_errors_total{operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Page Cache Hit Rate
//   sum(rate(collection_page_cache_hits_total[5m])) /
//   (sum(rate(collection_page_cache_hits_total[5m])) + sum(rate(collection_page_cache_misses_total[5m])))
//
//   # Fetch Error Rate
//   rate(collection_fetches_total{result="error"}[5m])
//
//   # P95 Fetch Latency
//   histogram_quantile(0.95, rate(collection_fetch_duration_seconds_bucket[5m]))
//
//   # Stale Completion Rate (high values mean users churn filters mid-fetch)
//   rate(collection_stale_results_total[5m])
