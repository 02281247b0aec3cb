package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/jobsync/internal/core/cache"
	"github.com/vietddude/jobsync/internal/core/domain"
	"github.com/vietddude/jobsync/internal/core/retry"
	"github.com/vietddude/jobsync/internal/syncing/metrics"
)

// ErrSyncInProgress is returned by Flush when another flush holds the gate.
var ErrSyncInProgress = errors.New("sync already in progress")

// Sender pushes one local mutation to the server and returns the server's
// version of the entity (nil when the server returned none).
type Sender interface {
	Push(ctx context.Context, idempotencyKey string, e domain.Entity) (domain.Entity, error)
}

// Fetcher loads authoritative list buckets from the server.
type Fetcher interface {
	FetchJobs(ctx context.Context) ([]domain.Job, error)
	FetchBookings(ctx context.Context) ([]domain.Booking, error)
}

// Config holds coordinator settings.
type Config struct {
	Interval time.Duration `yaml:"interval"`
	Retry    retry.Config  `yaml:"retry"`
}

// Result summarises one flush.
type Result struct {
	Confirmed int
	Remaining int
	Failed    map[domain.EntityType]error
}

// Coordinator drains the pending-sync queue against the server and refreshes
// stale buckets. Only one flush runs at a time.
type Coordinator struct {
	store     *cache.Store
	sender    Sender
	fetcher   Fetcher
	persister *cache.Persister
	push      *retry.Executor
	fetch     *retry.Executor
	interval  time.Duration
	trigger   chan struct{}
}

// New creates a Coordinator. fetcher and persister may be nil.
func New(
	cfg Config,
	store *cache.Store,
	sender Sender,
	fetcher Fetcher,
	persister *cache.Persister,
) *Coordinator {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	pushCfg := cfg.Retry
	pushCfg.Name = "sync_push"
	fetchCfg := cfg.Retry
	fetchCfg.Name = "sync_fetch"

	return &Coordinator{
		store:     store,
		sender:    sender,
		fetcher:   fetcher,
		persister: persister,
		push:      retry.New(pushCfg),
		fetch:     retry.New(fetchCfg),
		interval:  interval,
		trigger:   make(chan struct{}, 1),
	}
}

// Flush pushes every pending entry, type by type in FIFO order. A confirmed
// entry is removed from the queue and written back to the cache; the first
// failure of a type stops that type so later mutations never overtake it.
// Failed entries stay queued for the next cycle.
func (c *Coordinator) Flush(ctx context.Context) (Result, error) {
	if !c.store.BeginSync() {
		metrics.SyncFlushesTotal.WithLabelValues("skipped").Inc()
		return Result{}, ErrSyncInProgress
	}
	start := time.Now()
	defer func() {
		c.store.EndSync()
		metrics.SyncFlushDuration.Observe(time.Since(start).Seconds())
		c.reportQueueDepth()
	}()

	res := Result{Failed: make(map[domain.EntityType]error)}
	for _, t := range domain.SyncableTypes {
		if err := ctx.Err(); err != nil {
			res.Failed[t] = err
			continue
		}
		confirmed, err := c.flushType(ctx, t)
		res.Confirmed += confirmed
		if err != nil {
			res.Failed[t] = err
		}
	}
	res.Remaining = c.store.PendingCount()

	if len(res.Failed) > 0 {
		metrics.SyncFlushesTotal.WithLabelValues("partial").Inc()
		errs := make([]error, 0, len(res.Failed))
		for _, t := range domain.SyncableTypes {
			if err, ok := res.Failed[t]; ok {
				errs = append(errs, fmt.Errorf("flush %s: %w", t, err))
			}
		}
		return res, errors.Join(errs...)
	}
	metrics.SyncFlushesTotal.WithLabelValues("ok").Inc()
	return res, nil
}

func (c *Coordinator) flushType(ctx context.Context, t domain.EntityType) (int, error) {
	return c.flushUntil(ctx, t, "")
}

// flushUntil pushes pending entries of type t in order, stopping at the first
// failure or after the entry with key stop (all entries when stop is empty).
func (c *Coordinator) flushUntil(ctx context.Context, t domain.EntityType, stop string) (int, error) {
	confirmed := 0
	skipped := make(map[string]bool)
	for {
		// Re-read the queue each time: a confirmation may re-point later
		// entries at a server-assigned id.
		entry, ok := nextPending(c.store.Pending(t), skipped)
		if !ok {
			break
		}
		if entry.Payload == nil {
			slog.Warn("Skipping pending entry without payload", "type", t, "key", entry.Key)
			skipped[entry.Key] = true
			continue
		}

		server, err := retry.Do(ctx, c.push, func(ctx context.Context) (domain.Entity, error) {
			return c.sender.Push(ctx, entry.Key, entry.Payload)
		})
		if err != nil {
			slog.Warn("Pending entry not confirmed",
				"type", t,
				"entity_id", entry.EntityID,
				"key", entry.Key,
				"error", err,
			)
			return confirmed, err
		}

		c.store.Confirm(entry, server)
		metrics.SyncConfirmedTotal.WithLabelValues(string(t)).Inc()
		confirmed++
		if entry.Key == stop {
			break
		}
	}
	return confirmed, nil
}

func nextPending(queue []cache.PendingEntry, skipped map[string]bool) (cache.PendingEntry, bool) {
	for _, e := range queue {
		if !skipped[e.Key] {
			return e, true
		}
	}
	return cache.PendingEntry{}, false
}

// Submit records a user-initiated change and tries to deliver it right away.
// The change is cached and queued first and then sent through the same gate
// and FIFO order as Flush, so earlier pending changes of its type go out
// before it. When another flush holds the gate the change stays queued, a
// cycle is triggered and ErrSyncInProgress is returned. On failure the change
// stays pending for the next flush and the error is returned for the caller
// to surface.
func (c *Coordinator) Submit(ctx context.Context, e domain.Entity) (cache.PendingEntry, error) {
	entry := c.store.Mutate(e)
	defer c.reportQueueDepth()

	if !c.store.BeginSync() {
		c.Trigger()
		return entry, fmt.Errorf("submit %s %d: %w", entry.Type, entry.EntityID, ErrSyncInProgress)
	}
	defer c.store.EndSync()

	if _, err := c.flushUntil(ctx, entry.Type, entry.Key); err != nil {
		return entry, fmt.Errorf("submit %s %d: %w", entry.Type, entry.EntityID, err)
	}
	return entry, nil
}

// RefreshStale refetches every stale list bucket. Stale data stays servable
// until the fetch succeeds.
func (c *Coordinator) RefreshStale(ctx context.Context) error {
	if c.fetcher == nil {
		return nil
	}

	var errs []error
	for _, t := range c.store.StaleTypes() {
		if err := c.refresh(ctx, t); err != nil {
			errs = append(errs, fmt.Errorf("refresh %s: %w", t, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Coordinator) refresh(ctx context.Context, t domain.EntityType) error {
	switch t {
	case domain.EntityJob:
		jobs, err := retry.Do(ctx, c.fetch, c.fetcher.FetchJobs)
		if err != nil {
			return err
		}
		c.store.SetJobs(jobs)
	case domain.EntityBooking:
		bookings, err := retry.Do(ctx, c.fetch, c.fetcher.FetchBookings)
		if err != nil {
			return err
		}
		c.store.SetBookings(bookings)
	}
	slog.Debug("Refreshed stale bucket", "type", t)
	return nil
}

// Trigger requests an immediate cycle, e.g. when connectivity returns.
// Requests made while one is already queued are coalesced.
func (c *Coordinator) Trigger() {
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}

// Start runs sync cycles every interval and on Trigger until ctx is done.
func (c *Coordinator) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Initial cycle
	c.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunCycle(ctx)
		case <-c.trigger:
			c.RunCycle(ctx)
		}
	}
}

// RunCycle refreshes stale buckets, flushes the queue and persists the result.
func (c *Coordinator) RunCycle(ctx context.Context) {
	if err := c.RefreshStale(ctx); err != nil {
		slog.Warn("Stale refresh incomplete", "error", err)
	}

	res, err := c.Flush(ctx)
	switch {
	case errors.Is(err, ErrSyncInProgress):
		slog.Debug("Flush skipped, another flush is running")
	case err != nil:
		slog.Warn("Flush incomplete", "confirmed", res.Confirmed, "remaining", res.Remaining, "error", err)
	case res.Confirmed > 0:
		slog.Info("Flush complete", "confirmed", res.Confirmed)
	}

	if c.persister != nil {
		if err := c.persister.Save(ctx, c.store); err != nil {
			slog.Error("Failed to persist cache snapshot", "error", err)
		}
	}
}

func (c *Coordinator) reportQueueDepth() {
	st := c.store.Snapshot()
	for _, t := range domain.SyncableTypes {
		metrics.PendingEntries.WithLabelValues(string(t)).Set(float64(len(st.Pending.Queue(t))))
	}
}
