package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/jobsync/internal/core/domain"
	"github.com/vietddude/jobsync/internal/infra/kv"
)

// Keys under which the snapshot is persisted. All of them carry the "cache"
// marker so a hard reset removes them.
const (
	KeyJobs     = "cache:jobs"
	KeyBookings = "cache:bookings"
	KeyUsers    = "cache:users"
	KeyMessages = "cache:messages"
	KeyReviews  = "cache:reviews"
	KeyPending  = "cache:pending_sync"
)

// SnapshotKeys lists every key written by Persister.Save.
var SnapshotKeys = []string{KeyJobs, KeyBookings, KeyUsers, KeyMessages, KeyReviews, KeyPending}

type pendingEntryJSON struct {
	Key        string            `json:"key"`
	Type       domain.EntityType `json:"type"`
	EntityID   int64             `json:"entity_id"`
	Payload    json.RawMessage   `json:"payload"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
}

// MarshalJSON encodes the entry together with its concrete payload.
func (e PendingEntry) MarshalJSON() ([]byte, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(pendingEntryJSON{
		Key:        e.Key,
		Type:       e.Type,
		EntityID:   e.EntityID,
		Payload:    payload,
		EnqueuedAt: e.EnqueuedAt,
	})
}

// UnmarshalJSON decodes the payload into the entity type named by Type.
func (e *PendingEntry) UnmarshalJSON(data []byte) error {
	var raw pendingEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Key = raw.Key
	e.Type = raw.Type
	e.EntityID = raw.EntityID
	e.EnqueuedAt = raw.EnqueuedAt
	e.Payload = nil
	if len(raw.Payload) > 0 && string(raw.Payload) != "null" {
		payload, err := domain.DecodeEntity(raw.Type, raw.Payload)
		if err != nil {
			return fmt.Errorf("pending entry %s: %w", raw.Key, err)
		}
		e.Payload = payload
	}
	return nil
}

// Persister writes Store snapshots into a kv.Store and rehydrates them.
type Persister struct {
	kv kv.Store
}

func NewPersister(store kv.Store) *Persister {
	return &Persister{kv: store}
}

// Save writes every bucket and the pending queue of the current snapshot.
func (p *Persister) Save(ctx context.Context, s *Store) error {
	st := s.Snapshot()
	st.Pending.SyncInProgress = false

	values := map[string]any{
		KeyJobs:     st.Jobs,
		KeyBookings: st.Bookings,
		KeyUsers:    st.Users,
		KeyMessages: st.Messages,
		KeyReviews:  st.Reviews,
		KeyPending:  st.Pending,
	}

	var errs []error
	for _, key := range SnapshotKeys {
		data, err := json.Marshal(values[key])
		if err != nil {
			errs = append(errs, fmt.Errorf("marshal %s: %w", key, err))
			continue
		}
		if err := p.kv.SetItem(ctx, key, string(data)); err != nil {
			errs = append(errs, fmt.Errorf("save %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// Load rehydrates s from durable storage. Missing keys leave the initial
// bucket in place; undecodable ones are logged and skipped so one bad bucket
// does not block the others. It returns the number of buckets restored.
func (p *Persister) Load(ctx context.Context, s *Store) (int, error) {
	st := InitialState()
	targets := map[string]func(string) error{
		KeyJobs:     func(raw string) error { return decodeInto(raw, &st.Jobs) },
		KeyBookings: func(raw string) error { return decodeInto(raw, &st.Bookings) },
		KeyUsers:    func(raw string) error { return decodeInto(raw, &st.Users) },
		KeyMessages: func(raw string) error { return decodeInto(raw, &st.Messages) },
		KeyReviews:  func(raw string) error { return decodeInto(raw, &st.Reviews) },
		KeyPending:  func(raw string) error { return decodeInto(raw, &st.Pending) },
	}

	restored := 0
	for _, key := range SnapshotKeys {
		raw, found, err := p.kv.GetItem(ctx, key)
		if err != nil {
			return restored, fmt.Errorf("load %s: %w", key, err)
		}
		if !found {
			continue
		}
		if err := targets[key](raw); err != nil {
			slog.Warn("Skipping unreadable cache bucket", "key", key, "error", err)
			continue
		}
		restored++
	}

	fillEmpty(&st)
	s.Restore(st)
	return restored, nil
}

// decodeInto only assigns dst when raw decodes completely.
func decodeInto[T any](raw string, dst *T) error {
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return err
	}
	*dst = v
	return nil
}

// fillEmpty replaces nil containers left by "null" JSON values.
func fillEmpty(st *State) {
	init := InitialState()
	if st.Users.Data == nil {
		st.Users.Data = init.Users.Data
	}
	if st.Messages.Data == nil {
		st.Messages.Data = init.Messages.Data
	}
	if st.Reviews.Data == nil {
		st.Reviews.Data = init.Reviews.Data
	}
	if st.Pending.Queues == nil {
		st.Pending.Queues = init.Pending.Queues
	}
}
