package postgres

import (
	"context"
	"os"
	"slices"
	"testing"
)

func TestKVRepo_Live(t *testing.T) {
	url := os.Getenv("POSTGRES_TEST_URL")
	if url == "" {
		t.Skip("Skipping live PostgreSQL test. Set POSTGRES_TEST_URL to run.")
	}

	ctx := context.Background()
	for _, driver := range []string{"pgx", "postgres"} {
		t.Run(driver, func(t *testing.T) {
			db, err := NewDB(ctx, Config{URL: url, Driver: driver})
			if err != nil {
				t.Fatalf("NewDB failed: %v", err)
			}
			defer db.Close()

			if err := db.Migrate(ctx); err != nil {
				t.Fatalf("Migrate failed: %v", err)
			}

			repo := NewKVRepo(db)
			_ = repo.MultiRemove(ctx, []string{"cache:jobs", "token", "cache:users"})

			_ = repo.SetItem(ctx, "cache:jobs", `{"data":[]}`)
			_ = repo.SetItem(ctx, "token", "abc")
			_ = repo.SetItem(ctx, "cache:users", `{`)
			if err := repo.SetItem(ctx, "token", "def"); err != nil {
				t.Fatalf("SetItem overwrite failed: %v", err)
			}

			v, found, err := repo.GetItem(ctx, "token")
			if err != nil || !found || v != "def" {
				t.Errorf("GetItem(token) = %q, %v, %v", v, found, err)
			}

			keys, err := repo.GetAllKeys(ctx)
			if err != nil {
				t.Fatalf("GetAllKeys failed: %v", err)
			}
			for _, k := range []string{"cache:jobs", "cache:users", "token"} {
				if !slices.Contains(keys, k) {
					t.Errorf("missing key %s in %v", k, keys)
				}
			}

			if err := repo.MultiRemove(ctx, []string{"cache:jobs", "cache:users"}); err != nil {
				t.Fatalf("MultiRemove failed: %v", err)
			}
			if err := repo.RemoveItem(ctx, "token"); err != nil {
				t.Fatalf("RemoveItem failed: %v", err)
			}
			if _, found, _ := repo.GetItem(ctx, "token"); found {
				t.Error("expected token removed")
			}
		})
	}
}
