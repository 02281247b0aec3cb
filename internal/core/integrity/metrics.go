package integrity

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// repairedKeysTotal tracks keys evicted by ValidateAndRepair
	repairedKeysTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jobsync_storage_repaired_keys_total",
			Help: "Total number of corrupt storage keys removed",
		},
	)

	// clearedKeysTotal tracks keys removed by ClearAllCache
	clearedKeysTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jobsync_storage_cleared_keys_total",
			Help: "Total number of cache keys removed by full cache clears",
		},
	)
)
