package kv

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("kv store closed")

// Store is the durable key-value layer the client persists into.
type Store interface {
	// GetAllKeys lists every key in the store.
	GetAllKeys(ctx context.Context) ([]string, error)

	// GetItem returns the raw value for key; found is false when the key is absent.
	GetItem(ctx context.Context, key string) (value string, found bool, err error)

	// SetItem stores value under key.
	SetItem(ctx context.Context, key, value string) error

	// RemoveItem deletes key. Absent keys are not an error.
	RemoveItem(ctx context.Context, key string) error

	// MultiRemove deletes several keys.
	MultiRemove(ctx context.Context, keys []string) error
}
