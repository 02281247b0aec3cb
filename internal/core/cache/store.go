package cache

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/jobsync/internal/core/domain"
)

// Store owns the cached state. Every mutation is a pure transition from one
// State snapshot to the next, applied under a lock; no operation can fail.
type Store struct {
	mu     sync.RWMutex
	state  State
	now    func() time.Time
	newKey func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithKeyGenerator overrides how pending entry keys are generated.
func WithKeyGenerator(fn func() string) Option {
	return func(s *Store) { s.newKey = fn }
}

// NewStore creates a Store holding InitialState.
func NewStore(opts ...Option) *Store {
	s := &Store{
		state:  InitialState(),
		now:    time.Now,
		newKey: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) update(fn func(st State, now time.Time) State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = fn(s.state, s.now())
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Restore replaces the whole state, e.g. after rehydrating from durable storage.
// A restored state never carries an in-progress flush.
func (s *Store) Restore(st State) {
	s.update(func(_ State, _ time.Time) State {
		st.Pending.SyncInProgress = false
		if st.Pending.Queues == nil {
			st.Pending.Queues = map[domain.EntityType][]PendingEntry{}
		}
		st.Pending.LastLocalID = min(st.Pending.LastLocalID, st.Pending.lowestID())
		return st
	})
}

// ClearAll resets every bucket and queue to the initial state in one step.
func (s *Store) ClearAll() {
	s.update(func(_ State, _ time.Time) State {
		return InitialState()
	})
}

// Jobs

func (s *Store) SetJobs(jobs []domain.Job) {
	s.update(func(st State, now time.Time) State {
		st.Jobs = st.Jobs.set(jobs, now)
		return st
	})
}

func (s *Store) UpsertJob(job domain.Job) {
	s.update(func(st State, _ time.Time) State {
		st.Jobs = st.Jobs.upsert(job)
		return st
	})
}

func (s *Store) Jobs() []domain.Job {
	return s.Snapshot().Jobs.Data
}

// Bookings

func (s *Store) SetBookings(bookings []domain.Booking) {
	s.update(func(st State, now time.Time) State {
		st.Bookings = st.Bookings.set(bookings, now)
		return st
	})
}

func (s *Store) UpsertBooking(booking domain.Booking) {
	s.update(func(st State, _ time.Time) State {
		st.Bookings = st.Bookings.upsert(booking)
		return st
	})
}

func (s *Store) Bookings() []domain.Booking {
	return s.Snapshot().Bookings.Data
}

// Users

// MergeUsers writes users into the id mapping, overwriting matching ids and
// keeping every other cached user.
func (s *Store) MergeUsers(users []domain.User) {
	s.update(func(st State, now time.Time) State {
		st.Users = st.Users.merge(users, now)
		return st
	})
}

func (s *Store) User(id int64) (domain.User, bool) {
	u, ok := s.Snapshot().Users.Data[id]
	return u, ok
}

// Messages

// SetMessages replaces the message list of a conversation.
func (s *Store) SetMessages(conversationID int64, msgs []domain.Message) {
	s.update(func(st State, now time.Time) State {
		st.Messages = st.Messages.setGroup(conversationID, msgs, now)
		return st
	})
}

// AppendMessage appends a message to its conversation, creating it if needed.
func (s *Store) AppendMessage(conversationID int64, msg domain.Message) {
	s.update(func(st State, _ time.Time) State {
		st.Messages = st.Messages.appendGroup(conversationID, msg)
		return st
	})
}

func (s *Store) Messages(conversationID int64) []domain.Message {
	return s.Snapshot().Messages.Data[conversationID]
}

// Reviews

// SetReviews replaces the reviews left for a subject user.
func (s *Store) SetReviews(subjectUserID int64, reviews []domain.Review) {
	s.update(func(st State, now time.Time) State {
		st.Reviews = st.Reviews.setGroup(subjectUserID, reviews, now)
		return st
	})
}

// AppendReview appends a review for a subject user, creating the group if needed.
func (s *Store) AppendReview(subjectUserID int64, review domain.Review) {
	s.update(func(st State, _ time.Time) State {
		st.Reviews = st.Reviews.appendGroup(subjectUserID, review)
		return st
	})
}

func (s *Store) Reviews(subjectUserID int64) []domain.Review {
	return s.Snapshot().Reviews.Data[subjectUserID]
}

// Remove drops the entity with id from the bucket of type t. Absent ids are ignored.
func (s *Store) Remove(t domain.EntityType, id int64) {
	s.update(func(st State, _ time.Time) State {
		return removeEntity(st, t, id)
	})
}

// MarkStale flags a list bucket for refetch while keeping its data servable.
// Only job and booking buckets track staleness.
func (s *Store) MarkStale(t domain.EntityType) {
	s.update(func(st State, _ time.Time) State {
		switch t {
		case domain.EntityJob:
			st.Jobs = st.Jobs.markStale()
		case domain.EntityBooking:
			st.Bookings = st.Bookings.markStale()
		}
		return st
	})
}

// IsStale reports whether the bucket of type t must be refetched before it is
// authoritative.
func (s *Store) IsStale(t domain.EntityType) bool {
	st := s.Snapshot()
	switch t {
	case domain.EntityJob:
		return st.Jobs.IsStale
	case domain.EntityBooking:
		return st.Bookings.IsStale
	default:
		return false
	}
}

// StaleTypes lists the buckets currently flagged stale.
func (s *Store) StaleTypes() []domain.EntityType {
	st := s.Snapshot()
	var out []domain.EntityType
	if st.Jobs.IsStale {
		out = append(out, domain.EntityJob)
	}
	if st.Bookings.IsStale {
		out = append(out, domain.EntityBooking)
	}
	return out
}

// Mutate records a local change: the entity is written to its bucket right away
// and queued for the server in the same transition. An entity with id 0 is new
// and gets a placeholder id; the returned entry's payload carries it.
func (s *Store) Mutate(e domain.Entity) PendingEntry {
	var entry PendingEntry
	s.update(func(st State, now time.Time) State {
		st.Pending, e = st.Pending.assignLocalID(e)
		st = putEntity(st, e)
		entry = s.newEntry(e.Type(), e, now)
		st.Pending = st.Pending.enqueue(entry)
		return st
	})
	return entry
}

// Confirm removes a pending entry the server has persisted and writes the
// confirmed entity into its bucket, stamping the bucket as fresh. A nil
// confirmed entity keeps the local payload. When the server assigned a new id
// the local placeholder is replaced. Confirming an entry that is no longer
// queued changes nothing.
func (s *Store) Confirm(entry PendingEntry, confirmed domain.Entity) {
	if confirmed == nil {
		confirmed = entry.Payload
	}
	s.update(func(st State, now time.Time) State {
		var removed bool
		st.Pending, removed = st.Pending.dequeue(entry.Type, func(e PendingEntry) bool { return e.Key == entry.Key })
		// Already confirmed, or dropped by ClearAll/ClearQueue
		if !removed || confirmed == nil {
			return st
		}
		if confirmed.EntityID() != entry.EntityID {
			st = removeEntity(st, entry.Type, entry.EntityID)
			st.Pending = st.Pending.remapID(entry.Type, entry.EntityID, confirmed.EntityID())
		}
		st = putEntity(st, confirmed)
		return touch(st, confirmed.Type(), now)
	})
}

func putEntity(st State, e domain.Entity) State {
	switch v := e.(type) {
	case domain.Job:
		st.Jobs = st.Jobs.upsert(v)
	case domain.Booking:
		st.Bookings = st.Bookings.upsert(v)
	case domain.User:
		st.Users = st.Users.merge([]domain.User{v}, st.Users.LastUpdated)
	case domain.Message:
		st.Messages = st.Messages.upsertGroup(v)
	case domain.Review:
		st.Reviews = st.Reviews.upsertGroup(v)
	}
	return st
}

func removeEntity(st State, t domain.EntityType, id int64) State {
	switch t {
	case domain.EntityJob:
		st.Jobs = st.Jobs.remove(id)
	case domain.EntityBooking:
		st.Bookings = st.Bookings.remove(id)
	case domain.EntityUser:
		st.Users = st.Users.remove(id)
	case domain.EntityMessage:
		st.Messages = st.Messages.remove(id)
	case domain.EntityReview:
		st.Reviews = st.Reviews.remove(id)
	}
	return st
}

func touch(st State, t domain.EntityType, now time.Time) State {
	switch t {
	case domain.EntityJob:
		st.Jobs.LastUpdated = now
	case domain.EntityBooking:
		st.Bookings.LastUpdated = now
	case domain.EntityUser:
		st.Users.LastUpdated = now
	case domain.EntityMessage:
		st.Messages.LastUpdated = now
	case domain.EntityReview:
		st.Reviews.LastUpdated = now
	}
	return st
}
