package health

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/jobsync/internal/core/cache"
	"github.com/vietddude/jobsync/internal/core/domain"
)

// Check probes one external dependency (API, storage backend).
type Check func(ctx context.Context) error

// Thresholds decide when the queue counts as degraded or critical.
type Thresholds struct {
	// SyncOverdue is how long pending entries may wait since the last flush
	// attempt before the client is degraded.
	SyncOverdue time.Duration
	// CriticalPending is the queue depth at which the client is critical.
	CriticalPending int
}

var DefaultThresholds = Thresholds{
	SyncOverdue:     5 * time.Minute,
	CriticalPending: 500,
}

// Monitor aggregates health status from the cache store and dependency checks.
type Monitor struct {
	store      *cache.Store
	checks     map[string]Check
	thresholds Thresholds
	now        func() time.Time
	lastCheck  time.Time
	lastReport SyncHealth
	mu         sync.Mutex
}

// NewMonitor creates a new health monitor.
func NewMonitor(store *cache.Store, checks map[string]Check, thresholds Thresholds) *Monitor {
	if thresholds.SyncOverdue <= 0 {
		thresholds.SyncOverdue = DefaultThresholds.SyncOverdue
	}
	if thresholds.CriticalPending <= 0 {
		thresholds.CriticalPending = DefaultThresholds.CriticalPending
	}
	return &Monitor{
		store:      store,
		checks:     checks,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// CheckHealth builds a health report.
func (m *Monitor) CheckHealth(ctx context.Context) SyncHealth {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	// Rate limit dependency probes
	if now.Sub(m.lastCheck) < 10*time.Second && m.lastReport.Status != "" {
		return m.lastReport
	}

	st := m.store.Snapshot()
	report := SyncHealth{
		Status:         StatusHealthy,
		Pending:        make(map[string]int, len(domain.SyncableTypes)),
		PendingTotal:   st.Pending.Count(),
		SyncInProgress: st.Pending.SyncInProgress,
	}
	for _, t := range domain.SyncableTypes {
		report.Pending[string(t)] = len(st.Pending.Queue(t))
	}
	if !st.Pending.LastSyncAttempt.IsZero() {
		last := st.Pending.LastSyncAttempt
		report.LastSyncAttempt = &last
	}
	for _, t := range m.store.StaleTypes() {
		report.StaleBuckets = append(report.StaleBuckets, string(t))
	}

	depFailed := false
	if len(m.checks) > 0 {
		report.Dependencies = make(map[string]string, len(m.checks))
		for name, check := range m.checks {
			if err := check(ctx); err != nil {
				report.Dependencies[name] = err.Error()
				depFailed = true
				continue
			}
			report.Dependencies[name] = "ok"
		}
	}

	// Evaluate Status
	overdue := report.PendingTotal > 0 &&
		(st.Pending.LastSyncAttempt.IsZero() || now.Sub(st.Pending.LastSyncAttempt) > m.thresholds.SyncOverdue)
	switch {
	case report.PendingTotal >= m.thresholds.CriticalPending:
		report.Status = StatusCritical
	case overdue || depFailed || len(report.StaleBuckets) > 0:
		report.Status = StatusDegraded
	}

	m.lastCheck = now
	m.lastReport = report
	return report
}
