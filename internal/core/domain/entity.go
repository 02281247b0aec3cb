package domain

// EntityType names a cached entity kind
type EntityType string

const (
	EntityJob     EntityType = "job"
	EntityUser    EntityType = "user"
	EntityMessage EntityType = "message"
	EntityBooking EntityType = "booking"
	EntityReview  EntityType = "review"
)

// SyncableTypes are the entity types that can carry pending local mutations,
// in flush order.
var SyncableTypes = []EntityType{EntityJob, EntityMessage, EntityReview, EntityBooking}

// Entity is a server-owned record identified by an integer id.
type Entity interface {
	EntityID() int64
	Type() EntityType
}

// Grouped entities are cached in per-key lists (conversation, subject user).
type Grouped interface {
	Entity
	GroupKey() int64
}

// IsSyncable reports whether t is one of SyncableTypes.
func (t EntityType) IsSyncable() bool {
	for _, s := range SyncableTypes {
		if s == t {
			return true
		}
	}
	return false
}

// WithID returns a copy of e carrying id.
func WithID(e Entity, id int64) Entity {
	switch v := e.(type) {
	case Job:
		v.ID = id
		return v
	case User:
		v.ID = id
		return v
	case Message:
		v.ID = id
		return v
	case Booking:
		v.ID = id
		return v
	case Review:
		v.ID = id
		return v
	default:
		return e
	}
}
