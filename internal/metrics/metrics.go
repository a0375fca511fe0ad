// Package metrics holds the Prometheus collectors of the service. Collectors
// are created eagerly so that packages can record into them in tests without
// registration; Register exposes them on a registry once at startup.
package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "channelpulse"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "HTTP request duration in seconds, by endpoint and method.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	RequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})

	CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_hits_total",
		Help:      "Total Redis cache hits.",
	})

	CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_misses_total",
		Help:      "Total Redis cache misses.",
	})

	SyncRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Sync job runs, by final status.",
		},
		[]string{"status"},
	)

	SyncDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sync_duration_seconds",
		Help:      "Duration of sync job runs.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})

	SyncFetchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_fetch_failures_total",
			Help:      "Per-channel fetch failures during sync, by channel.",
		},
		[]string{"channel"},
	)

	SnapshotsWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "snapshots_written_total",
		Help:      "Snapshot rows written by sync runs.",
	})

	YouTubeRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "youtube_requests_total",
			Help:      "YouTube Data API requests, by endpoint and HTTP status.",
		},
		[]string{"endpoint", "status"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open).",
		},
		[]string{"name"},
	)
)

// Register adds every collector to reg. pool may be nil when the embedded
// store is in use, in which case no pool gauges are exported.
func Register(reg prometheus.Registerer, pool *pgxpool.Pool) {
	reg.MustRegister(
		RequestDuration,
		RequestsInFlight,
		CacheHits,
		CacheMisses,
		SyncRuns,
		SyncDuration,
		SyncFetchFailures,
		SnapshotsWritten,
		YouTubeRequests,
		CircuitBreakerState,
	)

	if pool == nil {
		return
	}
	reg.MustRegister(
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connection_pool_active",
				Help:      "Number of active database connections.",
			},
			func() float64 { return float64(pool.Stat().AcquiredConns()) },
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connection_pool_idle",
				Help:      "Number of idle database connections.",
			},
			func() float64 { return float64(pool.Stat().IdleConns()) },
		),
	)
}
