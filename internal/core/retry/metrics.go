package retry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// attemptsTotal tracks executor outcomes per operation
var attemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "jobsync_retry_attempts_total",
		Help: "Total number of retry executor attempt outcomes",
	},
	[]string{"operation", "outcome"},
)
