package integrity

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/vietddude/jobsync/internal/infra/kv"
)

// flakyStore wraps a MemoryStore and fails reads or removes for chosen keys.
type flakyStore struct {
	*kv.MemoryStore
	mu         sync.Mutex
	failGet    map[string]bool
	failRemove map[string]bool
	removed    []string
}

func newFlakyStore() *flakyStore {
	return &flakyStore{
		MemoryStore: kv.NewMemoryStore(),
		failGet:     map[string]bool{},
		failRemove:  map[string]bool{},
	}
}

func (s *flakyStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	if s.failGet[key] {
		return "", false, errors.New("read failed")
	}
	return s.MemoryStore.GetItem(ctx, key)
}

func (s *flakyStore) RemoveItem(ctx context.Context, key string) error {
	if s.failRemove[key] {
		return errors.New("remove failed")
	}
	s.mu.Lock()
	s.removed = append(s.removed, key)
	s.mu.Unlock()
	return s.MemoryStore.RemoveItem(ctx, key)
}

func seed(t *testing.T, s kv.Store, items map[string]string) {
	t.Helper()
	for k, v := range items {
		if err := s.SetItem(context.Background(), k, v); err != nil {
			t.Fatalf("seed %s: %v", k, err)
		}
	}
}

func exists(s kv.Store, key string) bool {
	_, found, _ := s.GetItem(context.Background(), key)
	return found
}

func TestValidateAndRepair(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		removed bool
	}{
		{"absent marker", "profile", "undefined", true},
		{"empty value", "settings", "", true},
		{"whitespace value", "settings", "   ", true},
		{"truncated object", "user_prefs", `{"theme":"da`, true},
		{"truncated array", "recent_searches", `["plumber",`, true},
		{"plain token", "auth_token", "eyJhbGciOiJIUzI1NiJ9.abc.def", false},
		{"plain word", "locale", "en-US", false},
		{"valid object", "user_prefs", `{"theme":"dark"}`, false},
		{"valid array", "recent_searches", `["plumber"]`, false},
		{"valid scalar", "onboarded", "true", false},
		{"json null", "draft", "null", false},
		{"known JSON key with plain text", "cache:jobs", "garbage", true},
		{"known JSON key with valid JSON", "cache:jobs", `{"data":[]}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := kv.NewMemoryStore()
			seed(t, store, map[string]string{tt.key: tt.value, "untouched": "value"})

			repaired := NewValidator(store, Config{}).ValidateAndRepair(context.Background())

			if exists(store, tt.key) == tt.removed {
				t.Errorf("key %q removed = %v, want %v", tt.key, !exists(store, tt.key), tt.removed)
			}
			want := 0
			if tt.removed {
				want = 1
			}
			if repaired != want {
				t.Errorf("repaired = %d, want %d", repaired, want)
			}
			if !exists(store, "untouched") {
				t.Error("unrelated key was removed")
			}
		})
	}
}

func TestValidateAndRepair_ContinuesPastFailures(t *testing.T) {
	store := newFlakyStore()
	seed(t, store, map[string]string{
		"a_unreadable": "{",
		"b_stuck":      "undefined",
		"c_corrupt":    "[1,",
		"d_token":      "abc",
	})
	store.failGet["a_unreadable"] = true
	store.failRemove["b_stuck"] = true

	repaired := NewValidator(store, Config{}).ValidateAndRepair(context.Background())

	if repaired != 1 {
		t.Errorf("repaired = %d, want 1", repaired)
	}
	if !slices.Equal(store.removed, []string{"c_corrupt"}) {
		t.Errorf("removed = %v, want [c_corrupt]", store.removed)
	}
	if !exists(store, "d_token") {
		t.Error("plain token must be kept")
	}
}

func TestValidateAndRepair_ListFailure(t *testing.T) {
	store := kv.NewMemoryStore()
	_ = store.Close()

	if got := NewValidator(store, Config{}).ValidateAndRepair(context.Background()); got != 0 {
		t.Errorf("repaired = %d, want 0", got)
	}
}

func TestValidateAndRepair_StrictPrefixesDisabled(t *testing.T) {
	store := kv.NewMemoryStore()
	seed(t, store, map[string]string{"cache:token": "plain"})

	v := NewValidator(store, Config{JSONPrefixes: []string{}})
	if got := v.ValidateAndRepair(context.Background()); got != 0 {
		t.Errorf("repaired = %d, want 0", got)
	}
}

func TestClearAllCache(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	seed(t, store, map[string]string{
		"cache:jobs":      `{"data":[]}`,
		"Image_Cache_v2":  "x",
		"persist:auth":    "{}",
		"persist:root":    "{}",
		"offline_cache":   "{}",
		"pending_sync":    "[]",
		"auth_token":      "abc",
		"onboarding_done": "true",
	})

	removed, err := NewValidator(store, Config{}).ClearAllCache(ctx)
	if err != nil {
		t.Fatalf("ClearAllCache failed: %v", err)
	}
	if removed != 6 {
		t.Errorf("removed = %d, want 6", removed)
	}

	keys, _ := store.GetAllKeys(ctx)
	if !slices.Equal(keys, []string{"auth_token", "onboarding_done"}) {
		t.Errorf("remaining keys = %v", keys)
	}
}

func TestClearAllCache_CountsRemovedKeys(t *testing.T) {
	store := kv.NewMemoryStore()
	seed(t, store, map[string]string{"cache:jobs": "{}", "pending_sync": "[]"})

	before := testutil.ToFloat64(clearedKeysTotal)
	if _, err := NewValidator(store, Config{}).ClearAllCache(context.Background()); err != nil {
		t.Fatalf("ClearAllCache failed: %v", err)
	}
	if got := testutil.ToFloat64(clearedKeysTotal) - before; got != 2 {
		t.Errorf("cleared counter moved by %v, want 2", got)
	}
}

func TestClearAllCache_Empty(t *testing.T) {
	removed, err := NewValidator(kv.NewMemoryStore(), Config{}).ClearAllCache(context.Background())
	if err != nil || removed != 0 {
		t.Errorf("ClearAllCache = %d, %v; want 0, nil", removed, err)
	}
}

func TestCorruptEntryError(t *testing.T) {
	inner := errors.New("unexpected end of JSON input")
	err := &CorruptEntryError{Key: "k", Reason: "invalid JSON", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("CorruptEntryError should unwrap to the parse error")
	}
	if err.Error() == "" {
		t.Error("empty error message")
	}
}
