package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cache metrics, labelled by key namespace (markets, orderbook, ...).
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intel_cache_hits_total",
			Help: "Total cache hits by key namespace",
		},
		[]string{"namespace"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intel_cache_misses_total",
			Help: "Total cache misses by key namespace",
		},
		[]string{"namespace"},
	)

	CacheKeys = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "intel_cache_keys",
			Help: "Number of live cache entries",
		},
	)

	// Upstream indexer metrics, labelled by call name.
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intel_upstream_requests_total",
			Help: "Total indexer requests by call and outcome",
		},
		[]string{"call", "outcome"},
	)

	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intel_upstream_latency_ms",
			Help:    "Indexer request latency in milliseconds",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"call"},
	)
)

// RecordCacheAccess records a cache hit or miss under a namespace.
func RecordCacheAccess(namespace string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(namespace).Inc()
	} else {
		CacheMisses.WithLabelValues(namespace).Inc()
	}
}

// ObserveUpstream records one indexer call's latency and outcome.
func ObserveUpstream(call string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	UpstreamRequests.WithLabelValues(call, outcome).Inc()
	UpstreamLatency.WithLabelValues(call).Observe(float64(time.Since(start).Milliseconds()))
}
