package config

import (
	"github.com/vietddude/jobsync/internal/core/integrity"
	"github.com/vietddude/jobsync/internal/infra/api"
	redisclient "github.com/vietddude/jobsync/internal/infra/redis"
	"github.com/vietddude/jobsync/internal/infra/storage/postgres"
	"github.com/vietddude/jobsync/internal/syncing/coordinator"
)

// Storage backends for the durable key-value store.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig       `yaml:"server"`
	Logging   LoggingConfig      `yaml:"logging"`
	API       api.Config         `yaml:"api"`
	Sync      coordinator.Config `yaml:"sync"`
	Storage   StorageConfig      `yaml:"storage"`
	Redis     redisclient.Config `yaml:"redis"`
	Database  postgres.Config    `yaml:"database"`
	Integrity integrity.Config   `yaml:"integrity"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// StorageConfig selects where the cache snapshot is persisted.
type StorageConfig struct {
	Backend string `yaml:"backend"` // memory, redis, postgres
}
