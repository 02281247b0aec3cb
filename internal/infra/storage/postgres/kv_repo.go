package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// KVRepo implements kv.Store on the kv_items table.
type KVRepo struct {
	db *DB
}

// NewKVRepo creates a new PostgreSQL key-value repository.
func NewKVRepo(db *DB) *KVRepo {
	return &KVRepo{db: db}
}

func (r *KVRepo) GetAllKeys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := r.db.SelectContext(ctx, &keys, `SELECT key FROM kv_items ORDER BY key`); err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return keys, nil
}

func (r *KVRepo) GetItem(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.GetContext(ctx, &value, `SELECT value FROM kv_items WHERE key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get item: %w", err)
	}
	return value, true, nil
}

func (r *KVRepo) SetItem(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO kv_items (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set item: %w", err)
	}
	return nil
}

func (r *KVRepo) RemoveItem(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kv_items WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}
	return nil
}

func (r *KVRepo) MultiRemove(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM kv_items WHERE key IN (?)`, keys)
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to remove items: %w", err)
	}
	return nil
}
