package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vietddude/jobsync/internal/core/cache"
	"github.com/vietddude/jobsync/internal/core/config"
	"github.com/vietddude/jobsync/internal/core/domain"
	"github.com/vietddude/jobsync/internal/core/integrity"
	"github.com/vietddude/jobsync/internal/infra/api"
	"github.com/vietddude/jobsync/internal/infra/kv"
	redisclient "github.com/vietddude/jobsync/internal/infra/redis"
	"github.com/vietddude/jobsync/internal/infra/storage/postgres"
	"github.com/vietddude/jobsync/internal/syncing/coordinator"
	"github.com/vietddude/jobsync/internal/syncing/health"
)

// ErrOffline is returned for pushes when no API is configured.
var ErrOffline = errors.New("no marketplace API configured")

// App is the main application struct that owns the cache, its durable storage
// and the sync loop.
type App struct {
	cfg          Config
	kv           kv.Store
	db           *postgres.DB
	redisClient  *redisclient.Client
	store        *cache.Store
	persister    *cache.Persister
	validator    *integrity.Validator
	api          *api.Client
	coordinator  *coordinator.Coordinator
	healthMon    *health.Monitor
	healthServer *health.Server
	log          *slog.Logger

	// cancel stops the sync loop; loopDone is closed once it has returned.
	cancel   context.CancelFunc
	loopDone chan struct{}
}

// Config holds the application configuration.
type Config struct {
	Port      int
	Backend   string
	API       api.Config
	Sync      coordinator.Config
	Redis     redisclient.Config
	Database  postgres.Config
	Integrity integrity.Config
	// HTTPClient overrides the API transport, mainly for tests.
	HTTPClient api.Doer
}

// ConfigFrom maps the file configuration onto the application configuration.
func ConfigFrom(c *config.AppConfig) Config {
	return Config{
		Port:      c.Server.Port,
		Backend:   c.Storage.Backend,
		API:       c.API,
		Sync:      c.Sync,
		Redis:     c.Redis,
		Database:  c.Database,
		Integrity: c.Integrity,
	}
}

// NewApp creates a new App with all dependencies initialized. Nothing runs
// until Start.
func NewApp(ctx context.Context, cfg Config) (*App, error) {
	a := &App{cfg: cfg, log: slog.Default()}

	checks := make(map[string]health.Check)

	// 1. Initialize Storage
	switch cfg.Backend {
	case config.BackendPostgres:
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		a.db = db
		a.kv = postgres.NewKVRepo(db)
		checks["database"] = db.Health
		a.log.Info("Using PostgreSQL storage")
	case config.BackendRedis:
		rc, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		a.redisClient = rc
		a.kv = rc
		checks["redis"] = rc.Health
		a.log.Info("Using Redis storage")
	case config.BackendMemory, "":
		a.kv = kv.NewMemoryStore()
		a.log.Info("Using Memory storage")
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	// 2. Cache and sync
	a.store = cache.NewStore()
	a.persister = cache.NewPersister(a.kv)
	a.validator = integrity.NewValidator(a.kv, cfg.Integrity)

	var sender coordinator.Sender
	var fetcher coordinator.Fetcher
	if cfg.API.BaseURL != "" {
		a.api = api.NewClient(cfg.API, cfg.HTTPClient)
		sender, fetcher = a.api, a.api
		checks["api"] = a.api.Ping
	} else {
		sender = offlineSender{}
		a.log.Warn("No API base URL configured, running offline")
	}
	a.coordinator = coordinator.New(cfg.Sync, a.store, sender, fetcher, a.persister)

	// 3. Health
	a.healthMon = health.NewMonitor(a.store, checks, health.DefaultThresholds)
	a.healthServer = health.NewServer(a.healthMon, cfg.Port)

	return a, nil
}

// Store returns the cache store.
func (a *App) Store() *cache.Store { return a.store }

// Coordinator returns the sync coordinator.
func (a *App) Coordinator() *coordinator.Coordinator { return a.coordinator }

// Validator returns the storage integrity validator.
func (a *App) Validator() *integrity.Validator { return a.validator }

// KV returns the durable key-value store.
func (a *App) KV() kv.Store { return a.kv }

// Health returns the health monitor.
func (a *App) Health() *health.Monitor { return a.healthMon }

// Restore repairs durable storage and rehydrates the cache from it. Storage is
// validated before anything reads it.
func (a *App) Restore(ctx context.Context) error {
	repaired := a.validator.ValidateAndRepair(ctx)
	restored, err := a.persister.Load(ctx, a.store)
	if err != nil {
		return fmt.Errorf("failed to restore cache: %w", err)
	}
	a.log.Info("Cache restored",
		"buckets", restored,
		"repaired_keys", repaired,
		"pending", a.store.PendingCount(),
	)
	return nil
}

// Start restores the cache and starts the sync loop and health server.
func (a *App) Start(ctx context.Context) error {
	if err := a.Restore(ctx); err != nil {
		return err
	}

	// Start Health Server
	go func() {
		if err := a.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("Health server failed", "error", err)
		}
	}()

	// Start DB Metrics Collector
	if a.db != nil {
		a.db.StartMetricsCollector(ctx)
	}

	a.log.Info("Starting sync coordinator", "interval", a.cfg.Sync.Interval)
	loopCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.loopDone = make(chan struct{})
	go func() {
		defer close(a.loopDone)
		a.coordinator.Start(loopCtx)
	}()

	return nil
}

// Stop waits for the sync loop to exit, persists the final snapshot and
// releases storage connections.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping jobsync...")

	var errs []error
	if a.cancel != nil {
		a.cancel()
		select {
		case <-a.loopDone:
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("wait for sync loop: %w", ctx.Err()))
		}
	}
	if err := a.Persist(ctx); err != nil {
		errs = append(errs, err)
	}

	// Stop Health Server
	if err := a.healthServer.Stop(ctx); err != nil {
		errs = append(errs, err)
	}

	if err := a.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Persist writes the current cache snapshot to durable storage.
func (a *App) Persist(ctx context.Context) error {
	if err := a.persister.Save(ctx, a.store); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return nil
}

// Load rehydrates the cache without repairing storage first.
func (a *App) Load(ctx context.Context) (int, error) {
	return a.persister.Load(ctx, a.store)
}

// Close releases storage connections without persisting.
func (a *App) Close() error {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			return fmt.Errorf("close redis: %w", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return fmt.Errorf("close db: %w", err)
		}
	}
	return nil
}

// offlineSender keeps every mutation queued when no API is configured.
type offlineSender struct{}

func (offlineSender) Push(ctx context.Context, key string, e domain.Entity) (domain.Entity, error) {
	return nil, ErrOffline
}
