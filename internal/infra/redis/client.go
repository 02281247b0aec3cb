package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is a kv.Store backed by Redis. Every key is stored under Namespace so
// the client can share a database with other applications.
type Client struct {
	rdb       *redis.Client
	namespace string
	scanCount int64
}

// Config holds Redis connection configuration.
type Config struct {
	URL       string `yaml:"url"`
	Password  string `yaml:"password"`
	Namespace string `yaml:"namespace"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewClientFromRedis(rdb, cfg.Namespace), nil
}

// NewClientFromRedis wraps an existing go-redis client.
func NewClientFromRedis(rdb *redis.Client, namespace string) *Client {
	if namespace == "" {
		namespace = "jobsync"
	}
	return &Client{rdb: rdb, namespace: namespace, scanCount: 200}
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Key helpers
func (c *Client) fullKey(key string) string {
	return fmt.Sprintf("%s:%s", c.namespace, key)
}

func (c *Client) stripKey(full string) string {
	return strings.TrimPrefix(full, c.namespace+":")
}

// GetAllKeys scans the namespace for keys.
func (c *Client) GetAllKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := c.rdb.Scan(ctx, 0, c.fullKey("*"), c.scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, c.stripKey(iter.Val()))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	return keys, nil
}

// GetItem returns the raw value stored for key.
func (c *Client) GetItem(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, c.fullKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get failed: %w", err)
	}
	return val, true, nil
}

// SetItem stores value under key without expiry.
func (c *Client) SetItem(ctx context.Context, key, value string) error {
	if err := c.rdb.Set(ctx, c.fullKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

// RemoveItem deletes key.
func (c *Client) RemoveItem(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, c.fullKey(key)).Err(); err != nil {
		return fmt.Errorf("del failed: %w", err)
	}
	return nil
}

// MultiRemove deletes keys in a single DEL.
func (c *Client) MultiRemove(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.fullKey(k)
	}
	if err := c.rdb.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("del failed: %w", err)
	}
	return nil
}

// Health pings the server.
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
