package retry

import (
	"context"
	"log/slog"
	"time"
)

// Config defines retry behavior. Zero fields take the defaults.
type Config struct {
	Name          string        `yaml:"-"`
	MaxAttempts   int           `yaml:"max_attempts"`
	BaseDelay     time.Duration `yaml:"base_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	BackoffFactor float64       `yaml:"backoff_factor"`

	// ShouldRetry classifies a failure as transient. Defaults to ShouldRetry.
	ShouldRetry func(error) bool `yaml:"-"`
}

// DefaultConfig provides the defaults used for zero fields.
var DefaultConfig = Config{
	Name:          "default",
	MaxAttempts:   3,
	BaseDelay:     1 * time.Second,
	MaxDelay:      10 * time.Second,
	BackoffFactor: 2.0,
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = DefaultConfig.Name
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultConfig.MaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultConfig.BaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultConfig.MaxDelay
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = DefaultConfig.BackoffFactor
	}
	if c.ShouldRetry == nil {
		c.ShouldRetry = ShouldRetry
	}
	return c
}

// Executor runs operations with bounded, backoff-governed retries.
type Executor struct {
	cfg   Config
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an Executor, filling unset config fields with defaults.
func New(cfg Config) *Executor {
	return &Executor{
		cfg:   cfg.withDefaults(),
		sleep: sleepContext,
	}
}

// Config returns the effective configuration.
func (e *Executor) Config() Config {
	return e.cfg
}

// Run invokes op until it succeeds, the classifier rejects the error, or
// MaxAttempts is reached. A rejected error is returned as is; running out of
// attempts yields a *RetryExhaustedError wrapping the last error.
func (e *Executor) Run(ctx context.Context, op func(ctx context.Context) error) error {
	_, err := Do(ctx, e, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Do is the value-returning form of Executor.Run.
func Do[T any](ctx context.Context, e *Executor, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	cfg := e.cfg

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			attemptsTotal.WithLabelValues(cfg.Name, "success").Inc()
			return result, nil
		}
		lastErr = err

		if !cfg.ShouldRetry(err) {
			attemptsTotal.WithLabelValues(cfg.Name, "fatal").Inc()
			return zero, err
		}
		if attempt == cfg.MaxAttempts {
			break
		}
		attemptsTotal.WithLabelValues(cfg.Name, "retry").Inc()

		delay := Delay(attempt, cfg.BaseDelay, cfg.MaxDelay, cfg.BackoffFactor)
		slog.Debug("Retrying operation",
			"operation", cfg.Name,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		if err := e.sleep(ctx, delay); err != nil {
			return zero, err
		}
	}

	attemptsTotal.WithLabelValues(cfg.Name, "exhausted").Inc()
	return zero, &RetryExhaustedError{Attempts: cfg.MaxAttempts, Err: lastErr}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
