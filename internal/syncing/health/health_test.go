package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/jobsync/internal/core/cache"
	"github.com/vietddude/jobsync/internal/core/domain"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newMonitor(store *cache.Store, checks map[string]Check, now time.Time) *Monitor {
	m := NewMonitor(store, checks, Thresholds{SyncOverdue: time.Minute, CriticalPending: 3})
	m.now = func() time.Time { return now }
	return m
}

func newStore(at time.Time) *cache.Store {
	return cache.NewStore(cache.WithClock(func() time.Time { return at }))
}

// =============================================================================
// Tests
// =============================================================================

func TestMonitor_Healthy(t *testing.T) {
	store := newStore(epoch)
	store.SetJobs([]domain.Job{{ID: 1}})

	report := newMonitor(store, map[string]Check{
		"api": func(context.Context) error { return nil },
	}, epoch).CheckHealth(context.Background())

	if report.Status != StatusHealthy {
		t.Errorf("expected healthy, got %s", report.Status)
	}
	if report.Dependencies["api"] != "ok" {
		t.Errorf("dependencies = %v", report.Dependencies)
	}
	if report.LastSyncAttempt != nil {
		t.Error("no sync attempted yet")
	}
}

func TestMonitor_Degraded(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*cache.Store)
		check Check
	}{
		{
			name:  "pending never flushed",
			setup: func(s *cache.Store) { s.Mutate(domain.Job{ID: 1}) },
		},
		{
			name: "pending flush overdue",
			setup: func(s *cache.Store) {
				s.Mutate(domain.Job{ID: 1})
				s.BeginSync()
				s.EndSync()
			},
		},
		{
			name:  "stale bucket",
			setup: func(s *cache.Store) { s.MarkStale(domain.EntityBooking) },
		},
		{
			name:  "dependency down",
			setup: func(*cache.Store) {},
			check: func(context.Context) error { return errors.New("connection refused") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(epoch)
			tt.setup(store)

			checks := map[string]Check{}
			if tt.check != nil {
				checks["api"] = tt.check
			}
			report := newMonitor(store, checks, epoch.Add(2*time.Minute)).CheckHealth(context.Background())
			if report.Status != StatusDegraded {
				t.Errorf("expected degraded, got %s (%+v)", report.Status, report)
			}
		})
	}
}

func TestMonitor_RecentFlushIsHealthy(t *testing.T) {
	store := newStore(epoch)
	store.Mutate(domain.Message{ID: 1, ConversationID: 2})
	store.BeginSync()
	store.EndSync()

	report := newMonitor(store, nil, epoch.Add(30*time.Second)).CheckHealth(context.Background())
	if report.Status != StatusHealthy {
		t.Errorf("expected healthy, got %s", report.Status)
	}
	if report.Pending["message"] != 1 || report.PendingTotal != 1 {
		t.Errorf("pending = %v total %d", report.Pending, report.PendingTotal)
	}
	if report.LastSyncAttempt == nil || !report.LastSyncAttempt.Equal(epoch) {
		t.Errorf("LastSyncAttempt = %v", report.LastSyncAttempt)
	}
}

func TestMonitor_Critical(t *testing.T) {
	store := newStore(epoch)
	for i := int64(1); i <= 3; i++ {
		store.Mutate(domain.Job{ID: i})
	}

	report := newMonitor(store, nil, epoch).CheckHealth(context.Background())
	if report.Status != StatusCritical {
		t.Errorf("expected critical, got %s", report.Status)
	}
}

func TestMonitor_CachesReport(t *testing.T) {
	calls := 0
	m := newMonitor(newStore(epoch), map[string]Check{
		"api": func(context.Context) error { calls++; return nil },
	}, epoch)

	m.CheckHealth(context.Background())
	m.CheckHealth(context.Background())
	if calls != 1 {
		t.Errorf("check called %d times, want 1", calls)
	}

	m.now = func() time.Time { return epoch.Add(time.Minute) }
	m.CheckHealth(context.Background())
	if calls != 2 {
		t.Errorf("check called %d times, want 2", calls)
	}
}

func TestServer_Endpoints(t *testing.T) {
	store := newStore(epoch)
	for i := int64(1); i <= 3; i++ {
		store.Mutate(domain.Booking{ID: i})
	}
	srv := NewServer(newMonitor(store, nil, epoch), 0)
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/health code = %d, want 503", rec.Code)
	}
	var short map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&short); err != nil || short["status"] != "critical" {
		t.Errorf("/health body = %v, err %v", short, err)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/detailed", nil))
	var detailed SyncHealth
	if err := json.NewDecoder(rec.Body).Decode(&detailed); err != nil {
		t.Fatalf("decode detailed: %v", err)
	}
	if detailed.Pending["booking"] != 3 {
		t.Errorf("detailed pending = %v", detailed.Pending)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/metrics code = %d", rec.Code)
	}
}
