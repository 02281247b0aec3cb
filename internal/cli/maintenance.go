package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Remove corrupt entries from durable storage",
	Run:   runRepair,
}

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Remove every cache and persistence key, including pending changes",
	Run:   runClearCache,
}

var flushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Push pending changes to the API once and exit",
	Run:   runFlush,
}

var forceClear bool

func init() {
	clearCacheCmd.Flags().BoolVar(&forceClear, "yes", false, "confirm removal of unsynced changes")
	rootCmd.AddCommand(repairCmd, clearCacheCmd, flushCmd)
}

func runRepair(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	app := openApp(ctx)
	defer func() {
		_ = app.Close()
	}()

	repaired := app.Validator().ValidateAndRepair(ctx)
	fmt.Printf("Removed %d corrupt entries\n", repaired)
}

func runClearCache(cmd *cobra.Command, args []string) {
	if !forceClear {
		fmt.Println("clear-cache also drops changes that were never synced; rerun with --yes to proceed")
		os.Exit(1)
	}

	ctx := context.Background()
	app := openApp(ctx)
	defer func() {
		_ = app.Close()
	}()

	removed, err := app.Validator().ClearAllCache(ctx)
	if err != nil {
		slog.Error("Failed to clear cache", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Removed %d keys\n", removed)
}

func runFlush(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	app := openApp(ctx)
	defer func() {
		_ = app.Close()
	}()

	if err := app.Restore(ctx); err != nil {
		slog.Error("Failed to restore cache", "error", err)
		os.Exit(1)
	}

	res, flushErr := app.Coordinator().Flush(ctx)
	if err := app.Persist(ctx); err != nil {
		slog.Error("Failed to persist cache", "error", err)
	}

	fmt.Printf("Confirmed %d, remaining %d\n", res.Confirmed, res.Remaining)
	if flushErr != nil {
		for t, err := range res.Failed {
			fmt.Printf("  %s: %v\n", t, err)
		}
		if errors.Is(flushErr, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}
