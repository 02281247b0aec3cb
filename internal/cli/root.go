package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/jobsync/internal/control"
	"github.com/vietddude/jobsync/internal/core/config"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "jobsync",
	Short: "Offline-first sync client for the job marketplace",
	Long: `jobsync keeps a local cache of marketplace jobs, bookings, users, messages and reviews,
queues changes made while offline and flushes them to the API with retry and backoff.`,
	Run: runSync,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

// setup loads .env and the config file and installs the logger.
func setup() *config.AppConfig {
	_ = godotenv.Load()

	// Load Configuration
	cfg, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup logging
	slogLevel := slog.LevelInfo
	switch {
	case isDebug || cfg.Logging.Level == "debug":
		slogLevel = slog.LevelDebug
	case cfg.Logging.Level == "warn":
		slogLevel = slog.LevelWarn
	case cfg.Logging.Level == "error":
		slogLevel = slog.LevelError
	}

	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})
	return cfg
}

// openApp builds the application for one-shot subcommands.
func openApp(ctx context.Context) *control.App {
	cfg := setup()
	app, err := control.NewApp(ctx, control.ConfigFrom(cfg))
	if err != nil {
		slog.Error("Failed to initialize jobsync", "error", err)
		os.Exit(1)
	}
	return app
}

func runSync(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := openApp(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := app.Start(ctx); err != nil {
		slog.Error("Failed to start jobsync", "error", err)
		os.Exit(1)
	}

	slog.Info("jobsync started", "config", cfgPath)

	// SIGHUP forces an immediate sync cycle
	hupChan := make(chan os.Signal, 1)
	signal.Notify(hupChan, syscall.SIGHUP)

	var sig os.Signal
	for sig == nil {
		select {
		case <-hupChan:
			slog.Info("Received SIGHUP, triggering sync")
			app.Coordinator().Trigger()
		case sig = <-sigChan:
		}
	}
	slog.Info("Received signal, shutting down...", "signal", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}
}
