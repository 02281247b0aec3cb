// Package health provides sync health monitoring and status reporting.
package health

import "time"

// SystemStatus represents the overall health state of the client or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// SyncHealth describes the pending-sync queue and cache freshness.
type SyncHealth struct {
	Status          SystemStatus      `json:"status"`
	Pending         map[string]int    `json:"pending"`
	PendingTotal    int               `json:"pending_total"`
	SyncInProgress  bool              `json:"sync_in_progress"`
	LastSyncAttempt *time.Time        `json:"last_sync_attempt,omitempty"`
	StaleBuckets    []string          `json:"stale_buckets,omitempty"`
	Dependencies    map[string]string `json:"dependencies,omitempty"` // name -> "ok" or error text
}
