package cache

import (
	"slices"
	"time"

	"github.com/vietddude/jobsync/internal/core/domain"
)

func (p PendingSync) enqueue(entry PendingEntry) PendingSync {
	queues := cloneMap(p.Queues)
	queues[entry.Type] = append(slices.Clip(queues[entry.Type]), entry)
	p.Queues = queues
	return p
}

// dequeue removes the first entry of type t matching match and reports
// whether one was removed.
func (p PendingSync) dequeue(t domain.EntityType, match func(PendingEntry) bool) (PendingSync, bool) {
	idx := slices.IndexFunc(p.Queues[t], match)
	if idx < 0 {
		return p, false
	}
	queues := cloneMap(p.Queues)
	queues[t] = slices.Delete(slices.Clone(queues[t]), idx, idx+1)
	p.Queues = queues
	return p, true
}

// assignLocalID gives an entity without an id (zero) a fresh negative
// placeholder so offline-created entities stay distinct.
func (p PendingSync) assignLocalID(e domain.Entity) (PendingSync, domain.Entity) {
	if e == nil || e.EntityID() != 0 {
		return p, e
	}
	p.LastLocalID = min(p.LastLocalID, 0) - 1
	return p, domain.WithID(e, p.LastLocalID)
}

// remapID points later entries for a placeholder id at the id the server
// assigned.
func (p PendingSync) remapID(t domain.EntityType, from, to int64) PendingSync {
	if !slices.ContainsFunc(p.Queues[t], func(e PendingEntry) bool { return e.EntityID == from }) {
		return p
	}
	queues := cloneMap(p.Queues)
	q := slices.Clone(queues[t])
	for i := range q {
		if q[i].EntityID != from {
			continue
		}
		q[i].EntityID = to
		if q[i].Payload != nil {
			q[i].Payload = domain.WithID(q[i].Payload, to)
		}
	}
	queues[t] = q
	p.Queues = queues
	return p
}

// lowestID returns the smallest entity id across all queues.
func (p PendingSync) lowestID() int64 {
	var lowest int64
	for _, q := range p.Queues {
		for _, e := range q {
			lowest = min(lowest, e.EntityID)
		}
	}
	return lowest
}

func (p PendingSync) clear(t domain.EntityType) PendingSync {
	if len(p.Queues[t]) == 0 {
		return p
	}
	queues := cloneMap(p.Queues)
	delete(queues, t)
	p.Queues = queues
	return p
}

// Enqueue appends payload to the pending queue of type t and returns the entry.
// A payload with id 0 is given a placeholder id first.
func (s *Store) Enqueue(t domain.EntityType, payload domain.Entity) PendingEntry {
	var entry PendingEntry
	s.update(func(st State, now time.Time) State {
		st.Pending, payload = st.Pending.assignLocalID(payload)
		entry = s.newEntry(t, payload, now)
		st.Pending = st.Pending.enqueue(entry)
		return st
	})
	return entry
}

// DequeueByID removes the first pending entry of type t for entity id. It is a
// no-op when nothing matches, so confirming twice is safe.
func (s *Store) DequeueByID(t domain.EntityType, id int64) {
	s.update(func(st State, _ time.Time) State {
		st.Pending, _ = st.Pending.dequeue(t, func(e PendingEntry) bool { return e.EntityID == id })
		return st
	})
}

// ClearQueue empties the pending queue of type t.
func (s *Store) ClearQueue(t domain.EntityType) {
	s.update(func(st State, _ time.Time) State {
		st.Pending = st.Pending.clear(t)
		return st
	})
}

// Pending returns the pending entries of type t in FIFO order.
func (s *Store) Pending(t domain.EntityType) []PendingEntry {
	return s.Snapshot().Pending.Queue(t)
}

// PendingCount returns the number of unconfirmed entries across all types.
func (s *Store) PendingCount() int {
	return s.Snapshot().Pending.Count()
}

// BeginSync marks a flush as in progress. It returns false, leaving state
// untouched, when another flush already holds the flag.
func (s *Store) BeginSync() bool {
	acquired := false
	s.update(func(st State, _ time.Time) State {
		if st.Pending.SyncInProgress {
			return st
		}
		acquired = true
		st.Pending.SyncInProgress = true
		return st
	})
	return acquired
}

// EndSync releases the flush flag and records when the attempt finished.
func (s *Store) EndSync() {
	s.update(func(st State, now time.Time) State {
		st.Pending.SyncInProgress = false
		st.Pending.LastSyncAttempt = now
		return st
	})
}

func (s *Store) newEntry(t domain.EntityType, payload domain.Entity, now time.Time) PendingEntry {
	entry := PendingEntry{
		Key:        s.newKey(),
		Type:       t,
		Payload:    payload,
		EnqueuedAt: now,
	}
	if payload != nil {
		entry.EntityID = payload.EntityID()
	}
	return entry
}
