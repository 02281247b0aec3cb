package integrity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vietddude/jobsync/internal/infra/kv"
)

// AbsentMarker is the literal some writers persist for a missing value.
const AbsentMarker = "undefined"

// Config controls which keys the validator treats as cache keys.
type Config struct {
	// CacheMarkers select keys removed by ClearAllCache (substring match).
	CacheMarkers []string `yaml:"cache_markers"`
	// RootKeys are always removed by ClearAllCache.
	RootKeys []string `yaml:"root_keys"`
	// JSONPrefixes mark keys known to hold JSON. Such keys are removed whenever
	// they fail to parse, whatever their first character.
	JSONPrefixes []string `yaml:"json_prefixes"`
}

// DefaultConfig is used for empty Config fields.
var DefaultConfig = Config{
	CacheMarkers: []string{"cache", "persist:"},
	RootKeys:     []string{"persist:root", "offline_cache", "pending_sync"},
	JSONPrefixes: []string{"cache:"},
}

// CorruptEntryError describes a stored value that cannot be rehydrated.
// It never leaves this package; the key is deleted instead.
type CorruptEntryError struct {
	Key    string
	Reason string
	Err    error
}

func (e *CorruptEntryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt entry %q: %s: %v", e.Key, e.Reason, e.Err)
	}
	return fmt.Sprintf("corrupt entry %q: %s", e.Key, e.Reason)
}

func (e *CorruptEntryError) Unwrap() error { return e.Err }

// Validator detects and evicts corrupt values in the durable key-value store.
type Validator struct {
	store kv.Store
	cfg   Config
}

// NewValidator creates a Validator; nil slices in cfg fall back to DefaultConfig.
func NewValidator(store kv.Store, cfg Config) *Validator {
	if cfg.CacheMarkers == nil {
		cfg.CacheMarkers = DefaultConfig.CacheMarkers
	}
	if cfg.RootKeys == nil {
		cfg.RootKeys = DefaultConfig.RootKeys
	}
	if cfg.JSONPrefixes == nil {
		cfg.JSONPrefixes = DefaultConfig.JSONPrefixes
	}
	return &Validator{store: store, cfg: cfg}
}

// ValidateAndRepair scans every key and removes absent-marker, empty and
// corrupt structured values. Plain strings that are not JSON are kept.
// Failures are logged per key and never abort the scan. It returns the number
// of keys removed.
func (v *Validator) ValidateAndRepair(ctx context.Context) int {
	keys, err := v.store.GetAllKeys(ctx)
	if err != nil {
		slog.Error("Storage validation failed to list keys", "error", err)
		return 0
	}

	repaired := 0
	for _, key := range keys {
		if ctx.Err() != nil {
			slog.Warn("Storage validation interrupted", "repaired", repaired, "error", ctx.Err())
			break
		}

		corrupt, err := v.check(ctx, key)
		if err != nil {
			slog.Warn("Storage validation skipped key", "key", key, "error", err)
			continue
		}
		if corrupt == nil {
			continue
		}

		if err := v.store.RemoveItem(ctx, key); err != nil {
			slog.Warn("Failed to remove corrupt key", "key", key, "error", err)
			continue
		}
		slog.Info("Removed corrupt storage key", "key", key, "reason", corrupt.Reason)
		repaired++
	}

	if repaired > 0 {
		repairedKeysTotal.Add(float64(repaired))
	}
	slog.Info("Storage validation complete", "keys", len(keys), "repaired", repaired)
	return repaired
}

// check returns a CorruptEntryError when key must be removed.
func (v *Validator) check(ctx context.Context, key string) (*CorruptEntryError, error) {
	raw, found, err := v.store.GetItem(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == AbsentMarker {
		return &CorruptEntryError{Key: key, Reason: "absent value"}, nil
	}

	var parsed any
	err = json.Unmarshal([]byte(trimmed), &parsed)
	if err == nil {
		return nil, nil
	}
	if looksStructured(trimmed) || v.isJSONKey(key) {
		return &CorruptEntryError{Key: key, Reason: "invalid JSON", Err: err}, nil
	}
	return nil, nil
}

func (v *Validator) isJSONKey(key string) bool {
	for _, prefix := range v.cfg.JSONPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func looksStructured(s string) bool {
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}

// ClearAllCache removes every cache-related key plus the configured root keys,
// valid or not. It returns the number of keys removed.
func (v *Validator) ClearAllCache(ctx context.Context) (int, error) {
	keys, err := v.store.GetAllKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list keys: %w", err)
	}

	existing := make(map[string]bool, len(keys))
	for _, k := range keys {
		existing[k] = true
	}

	var targets []string
	seen := make(map[string]bool)
	add := func(k string) {
		if !seen[k] && existing[k] {
			seen[k] = true
			targets = append(targets, k)
		}
	}
	for _, k := range keys {
		if v.isCacheKey(k) {
			add(k)
		}
	}
	for _, k := range v.cfg.RootKeys {
		add(k)
	}

	if len(targets) == 0 {
		return 0, nil
	}
	if err := v.store.MultiRemove(ctx, targets); err != nil {
		return 0, fmt.Errorf("failed to remove cache keys: %w", err)
	}

	clearedKeysTotal.Add(float64(len(targets)))
	slog.Info("Cleared cache keys", "count", len(targets))
	return len(targets), nil
}

func (v *Validator) isCacheKey(key string) bool {
	lower := strings.ToLower(key)
	for _, marker := range v.cfg.CacheMarkers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}
