package cache

import (
	"maps"
	"slices"
	"time"

	"github.com/vietddude/jobsync/internal/core/domain"
)

// Bucket methods never modify their receiver's slices or maps in place; every
// transition returns a bucket backed by fresh storage so older snapshots stay
// valid.

// ListBucket caches an ordered list of entities with unique ids.
type ListBucket[T domain.Entity] struct {
	Data        []T       `json:"data"`
	LastUpdated time.Time `json:"last_updated"`
	IsStale     bool      `json:"is_stale"`
}

func (b ListBucket[T]) set(items []T, now time.Time) ListBucket[T] {
	return ListBucket[T]{Data: dedupe(items), LastUpdated: now}
}

func (b ListBucket[T]) markStale() ListBucket[T] {
	b.IsStale = true
	return b
}

func (b ListBucket[T]) upsert(item T) ListBucket[T] {
	b.Data = upsertByID(b.Data, item)
	return b
}

func (b ListBucket[T]) remove(id int64) ListBucket[T] {
	b.Data = removeByID(b.Data, id)
	return b
}

// Find returns the entity with the given id.
func (b ListBucket[T]) Find(id int64) (T, bool) {
	for _, item := range b.Data {
		if item.EntityID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// MapBucket caches entities keyed by id.
type MapBucket[T domain.Entity] struct {
	Data        map[int64]T `json:"data"`
	LastUpdated time.Time   `json:"last_updated"`
}

func (b MapBucket[T]) merge(items []T, now time.Time) MapBucket[T] {
	data := cloneMap(b.Data)
	for _, item := range items {
		data[item.EntityID()] = item
	}
	return MapBucket[T]{Data: data, LastUpdated: now}
}

func (b MapBucket[T]) remove(id int64) MapBucket[T] {
	if _, ok := b.Data[id]; !ok {
		return b
	}
	data := cloneMap(b.Data)
	delete(data, id)
	b.Data = data
	return b
}

// GroupedBucket caches ordered entity lists keyed by a group id.
type GroupedBucket[T domain.Grouped] struct {
	Data        map[int64][]T `json:"data"`
	LastUpdated time.Time     `json:"last_updated"`
}

func (b GroupedBucket[T]) setGroup(key int64, items []T, now time.Time) GroupedBucket[T] {
	data := cloneMap(b.Data)
	data[key] = slices.Clone(items)
	return GroupedBucket[T]{Data: data, LastUpdated: now}
}

func (b GroupedBucket[T]) appendGroup(key int64, item T) GroupedBucket[T] {
	data := cloneMap(b.Data)
	list := data[key]
	data[key] = append(slices.Clip(list), item)
	b.Data = data
	return b
}

func (b GroupedBucket[T]) upsertGroup(item T) GroupedBucket[T] {
	data := cloneMap(b.Data)
	data[item.GroupKey()] = upsertByID(data[item.GroupKey()], item)
	b.Data = data
	return b
}

func (b GroupedBucket[T]) remove(id int64) GroupedBucket[T] {
	var data map[int64][]T
	for key, list := range b.Data {
		if !slices.ContainsFunc(list, func(item T) bool { return item.EntityID() == id }) {
			continue
		}
		if data == nil {
			data = cloneMap(b.Data)
		}
		data[key] = removeByID(list, id)
	}
	if data != nil {
		b.Data = data
	}
	return b
}

func upsertByID[T domain.Entity](list []T, item T) []T {
	out := slices.Clone(list)
	for i := range out {
		if out[i].EntityID() == item.EntityID() {
			out[i] = item
			return out
		}
	}
	return append(out, item)
}

func removeByID[T domain.Entity](list []T, id int64) []T {
	return slices.DeleteFunc(slices.Clone(list), func(item T) bool {
		return item.EntityID() == id
	})
}

// dedupe copies items keeping the first position of each id and the last
// payload seen for it.
func dedupe[T domain.Entity](items []T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = upsertInPlace(out, item)
	}
	return out
}

func upsertInPlace[T domain.Entity](list []T, item T) []T {
	for i := range list {
		if list[i].EntityID() == item.EntityID() {
			list[i] = item
			return list
		}
	}
	return append(list, item)
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return make(map[K]V)
	}
	return maps.Clone(m)
}
