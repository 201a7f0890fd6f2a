package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freshplate_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "freshplate_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// MealsLogged counts meals logged by source (manual or scan) and meal type.
	MealsLogged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freshplate_meals_logged_total",
		Help: "Total number of meals logged by source and meal type",
	}, []string{"source", "meal_type"})

	// ScanSessionsCreated counts scan sessions created by status.
	ScanSessionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freshplate_scan_sessions_total",
		Help: "Total number of scan sessions created by final status",
	}, []string{"status"})

	// AggregateRecomputes counts full recomputations of daily aggregates.
	AggregateRecomputes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freshplate_aggregate_recomputes_total",
		Help: "Total number of daily aggregate recomputations from meal rows",
	})

	// UpstreamRequestLatency records latency of calls to upstream AI services.
	UpstreamRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "freshplate_upstream_request_latency_seconds",
		Help:    "Latency of requests to upstream analysis services",
		Buckets: prometheus.DefBuckets,
	}, []string{"service", "outcome"})

	// CacheHits counts cache hits by key class.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freshplate_cache_hits_total",
		Help: "Total cache hits by key class",
	}, []string{"key"})

	// CacheMisses counts cache misses by key class.
	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freshplate_cache_misses_total",
		Help: "Total cache misses by key class",
	}, []string{"key"})
)

// ObserveDBQuery records the latency of a database query.
func ObserveDBQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}

// ObserveUpstream records the latency and outcome of an upstream service call.
func ObserveUpstream(service string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	UpstreamRequestLatency.WithLabelValues(service, outcome).Observe(time.Since(start).Seconds())
}
