package cache

import (
	"time"

	"github.com/vietddude/jobsync/internal/core/domain"
)

// State is an immutable snapshot of everything the client has cached.
// Callers must treat the slices and maps reachable from a State as read-only.
type State struct {
	Jobs     ListBucket[domain.Job]        `json:"jobs"`
	Bookings ListBucket[domain.Booking]    `json:"bookings"`
	Users    MapBucket[domain.User]        `json:"users"`
	Messages GroupedBucket[domain.Message] `json:"messages"`
	Reviews  GroupedBucket[domain.Review]  `json:"reviews"`
	Pending  PendingSync                   `json:"pending"`
}

// PendingSync holds local mutations the server has not confirmed yet.
type PendingSync struct {
	Queues          map[domain.EntityType][]PendingEntry `json:"queues"`
	SyncInProgress  bool                                 `json:"sync_in_progress"`
	LastSyncAttempt time.Time                            `json:"last_sync_attempt"`
	// LastLocalID is the most recently assigned placeholder id. Entities
	// created offline get ids below zero until the server assigns one.
	LastLocalID int64 `json:"last_local_id"`
}

// PendingEntry is one unconfirmed mutation. Key is unique per entry and is sent
// as the idempotency key so replays are safe.
type PendingEntry struct {
	Key        string
	Type       domain.EntityType
	EntityID   int64
	Payload    domain.Entity
	EnqueuedAt time.Time
}

// InitialState returns the empty state every bucket starts from.
func InitialState() State {
	return State{
		Users:    MapBucket[domain.User]{Data: map[int64]domain.User{}},
		Messages: GroupedBucket[domain.Message]{Data: map[int64][]domain.Message{}},
		Reviews:  GroupedBucket[domain.Review]{Data: map[int64][]domain.Review{}},
		Pending:  PendingSync{Queues: map[domain.EntityType][]PendingEntry{}},
	}
}

// Queue returns the pending entries for t in FIFO order.
func (p PendingSync) Queue(t domain.EntityType) []PendingEntry {
	return p.Queues[t]
}

// Count returns the total number of pending entries.
func (p PendingSync) Count() int {
	n := 0
	for _, q := range p.Queues {
		n += len(q)
	}
	return n
}
