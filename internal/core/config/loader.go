package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/jobsync/internal/core/retry"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, expanding environment variables first.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendMemory
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 15 * time.Second
	}
	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = 30 * time.Second
	}

	r := &cfg.Sync.Retry
	if r.MaxAttempts == 0 {
		r.MaxAttempts = retry.DefaultConfig.MaxAttempts
	}
	if r.BaseDelay == 0 {
		r.BaseDelay = retry.DefaultConfig.BaseDelay
	}
	if r.MaxDelay == 0 {
		r.MaxDelay = retry.DefaultConfig.MaxDelay
	}
	if r.BackoffFactor == 0 {
		r.BackoffFactor = retry.DefaultConfig.BackoffFactor
	}
}

// Validate checks settings that have no sensible default.
func (c *AppConfig) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("storage backend %q requires redis.url", c.Storage.Backend)
		}
	case BackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("storage backend %q requires database.url", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Sync.Retry.MaxDelay < c.Sync.Retry.BaseDelay {
		return fmt.Errorf("sync.retry.max_delay (%s) is below base_delay (%s)",
			c.Sync.Retry.MaxDelay, c.Sync.Retry.BaseDelay)
	}
	return nil
}
