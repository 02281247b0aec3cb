package kv

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.SetItem(ctx, "b", "2"); err != nil {
		t.Fatalf("SetItem failed: %v", err)
	}
	_ = s.SetItem(ctx, "a", "1")
	_ = s.SetItem(ctx, "c", "3")

	keys, err := s.GetAllKeys(ctx)
	if err != nil {
		t.Fatalf("GetAllKeys failed: %v", err)
	}
	if !slices.Equal(keys, []string{"a", "b", "c"}) {
		t.Errorf("keys = %v", keys)
	}

	v, found, err := s.GetItem(ctx, "b")
	if err != nil || !found || v != "2" {
		t.Errorf("GetItem(b) = %q, %v, %v", v, found, err)
	}
	if _, found, _ := s.GetItem(ctx, "missing"); found {
		t.Error("expected missing key not found")
	}

	if err := s.RemoveItem(ctx, "missing"); err != nil {
		t.Errorf("RemoveItem on absent key should not fail: %v", err)
	}
	if err := s.MultiRemove(ctx, []string{"a", "c"}); err != nil {
		t.Fatalf("MultiRemove failed: %v", err)
	}
	keys, _ = s.GetAllKeys(ctx)
	if !slices.Equal(keys, []string{"b"}) {
		t.Errorf("keys after MultiRemove = %v", keys)
	}

	_ = s.Close()
	if _, err := s.GetAllKeys(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
