package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal tracks marketplace API requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobsync_http_requests_total",
			Help: "Total number of marketplace API requests",
		},
		[]string{"method", "status"},
	)

	// HTTPLatency tracks marketplace API latency
	HTTPLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobsync_http_latency_seconds",
			Help:    "Marketplace API latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// SyncFlushesTotal tracks flush cycles by result
	SyncFlushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobsync_sync_flushes_total",
			Help: "Total number of pending-sync flush cycles",
		},
		[]string{"result"},
	)

	// SyncFlushDuration tracks how long a flush cycle takes
	SyncFlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jobsync_sync_flush_duration_seconds",
			Help:    "Duration of pending-sync flush cycles in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// SyncConfirmedTotal tracks entries confirmed by the server
	SyncConfirmedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobsync_sync_confirmed_total",
			Help: "Total number of pending-sync entries confirmed by the server",
		},
		[]string{"entity"},
	)

	// PendingEntries tracks the current pending-sync queue depth
	PendingEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "jobsync_pending_entries",
			Help: "Current number of unconfirmed pending-sync entries",
		},
		[]string{"entity"},
	)
)

// DBConnectionPoolUsage tracks PostgreSQL pool usage percentage
var DBConnectionPoolUsage = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "jobsync_db_connection_pool_usage_percent",
		Help: "PostgreSQL connection pool usage percentage",
	},
)
