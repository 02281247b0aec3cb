package redis

import (
	"context"
	"os"
	"slices"
	"testing"
)

func TestClient_Live(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("Skipping live Redis test. Set REDIS_TEST_URL to run.")
	}

	c, err := NewClient(Config{URL: url, Namespace: "jobsync_test"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	_ = c.MultiRemove(ctx, []string{"cache:jobs", "token"})

	if err := c.SetItem(ctx, "cache:jobs", `{"data":[]}`); err != nil {
		t.Fatalf("SetItem failed: %v", err)
	}
	if err := c.SetItem(ctx, "token", "abc"); err != nil {
		t.Fatalf("SetItem failed: %v", err)
	}

	keys, err := c.GetAllKeys(ctx)
	if err != nil {
		t.Fatalf("GetAllKeys failed: %v", err)
	}
	slices.Sort(keys)
	if !slices.Contains(keys, "cache:jobs") || !slices.Contains(keys, "token") {
		t.Errorf("keys = %v, want cache:jobs and token", keys)
	}

	v, found, err := c.GetItem(ctx, "token")
	if err != nil || !found || v != "abc" {
		t.Errorf("GetItem(token) = %q, %v, %v", v, found, err)
	}

	if err := c.MultiRemove(ctx, []string{"cache:jobs", "token"}); err != nil {
		t.Fatalf("MultiRemove failed: %v", err)
	}
	if _, found, _ := c.GetItem(ctx, "token"); found {
		t.Error("expected token removed")
	}
}

func TestKeyHelpers(t *testing.T) {
	c := &Client{namespace: "app"}
	if got := c.fullKey("cache:jobs"); got != "app:cache:jobs" {
		t.Errorf("fullKey = %q", got)
	}
	if got := c.stripKey("app:cache:jobs"); got != "cache:jobs" {
		t.Errorf("stripKey = %q", got)
	}
}
