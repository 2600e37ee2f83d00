package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics must be global for registration
var (
	// CacheHits tracks query cache hits by tier
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmsis_cache_hits_total",
			Help: "Total number of query cache hits",
		},
		[]string{"tier"}, // tier: memory, redis
	)

	// CacheMisses tracks query cache misses that reached the warehouse
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tmsis_cache_misses_total",
			Help: "Total number of query cache misses",
		},
	)

	// CacheEntries tracks the number of entries in the memory tier
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tmsis_cache_entries",
			Help: "Number of query results held in the memory cache",
		},
	)

	// CoalescedQueries counts callers that shared another caller's warehouse fetch
	CoalescedQueries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tmsis_coalesced_queries_total",
			Help: "Total number of queries answered by an in-flight fetch for the same statement",
		},
	)

	// WarehouseQueries counts warehouse round-trips
	WarehouseQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmsis_warehouse_queries_total",
			Help: "Total number of warehouse queries executed",
		},
		[]string{"status"}, // status: success, connection, query, auth, timeout
	)

	// WarehouseQueryDuration measures warehouse round-trip time
	WarehouseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tmsis_warehouse_query_duration_seconds",
			Help:    "Warehouse query execution time",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"status"},
	)

	// WarehouseRows counts rows returned by the warehouse
	WarehouseRows = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tmsis_warehouse_rows_total",
			Help: "Total number of result rows returned by the warehouse",
		},
	)

	// PageRenders counts dashboard page renders
	PageRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmsis_page_renders_total",
			Help: "Total number of dashboard page renders",
		},
		[]string{"page", "status"}, // status: success, invalid, error
	)

	// WarmerRuns counts cache warmer runs
	WarmerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmsis_warmer_runs_total",
			Help: "Total number of cache warmer runs",
		},
		[]string{"status"},
	)

	// ErrorsTotal counts total number of errors
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmsis_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// RecordCacheHit records a cache hit on tier
func RecordCacheHit(tier string) {
	CacheHits.WithLabelValues(tier).Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	CacheMisses.Inc()
}

// RecordCacheEntries records the memory tier size
func RecordCacheEntries(n int) {
	CacheEntries.Set(float64(n))
}

// RecordCoalesced records a caller served by a shared fetch
func RecordCoalesced() {
	CoalescedQueries.Inc()
}

// RecordWarehouseQuery records warehouse query metrics
func RecordWarehouseQuery(status string, duration float64, rows int) {
	WarehouseQueries.WithLabelValues(status).Inc()
	WarehouseQueryDuration.WithLabelValues(status).Observe(duration)
	WarehouseRows.Add(float64(rows))
}

// RecordPageRender records a page render outcome
func RecordPageRender(page, status string) {
	PageRenders.WithLabelValues(page, status).Inc()
}

// RecordWarmerRun records a cache warmer run
func RecordWarmerRun(status string) {
	WarmerRuns.WithLabelValues(status).Inc()
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
