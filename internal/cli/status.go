package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vietddude/jobsync/internal/syncing/health"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored keys, pending changes and sync health",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	app := openApp(ctx)
	defer func() {
		_ = app.Close()
	}()

	keys, err := app.KV().GetAllKeys(ctx)
	if err != nil {
		slog.Error("Failed to list keys", "error", err)
		os.Exit(1)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "KEY\tBYTES")
	for _, key := range keys {
		raw, _, err := app.KV().GetItem(ctx, key)
		if err != nil {
			_, _ = fmt.Fprintf(w, "%s\t%s\n", key, err)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\n", key, len(raw))
	}
	_ = w.Flush()

	if _, err := app.Load(ctx); err != nil {
		slog.Error("Failed to load cache", "error", err)
		os.Exit(1)
	}

	report := app.Health().CheckHealth(ctx)
	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "ENTITY\tPENDING")
	types := make([]string, 0, len(report.Pending))
	for t := range report.Pending {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", t, report.Pending[t])
	}
	_ = w.Flush()

	last := "never"
	if report.LastSyncAttempt != nil {
		last = report.LastSyncAttempt.Format(time.RFC3339)
	}
	fmt.Printf("\nstatus: %s  last sync attempt: %s\n", statusColor(report.Status).Sprint(report.Status), last)
	for name, state := range report.Dependencies {
		if state == "ok" {
			fmt.Printf("  %s: %s\n", name, color.New(color.FgGreen).Sprint("OK"))
			continue
		}
		fmt.Printf("  %s: %s\n", name, color.New(color.FgRed).Sprint(state))
	}
}

func statusColor(s health.SystemStatus) *color.Color {
	switch s {
	case health.StatusHealthy:
		return color.New(color.FgGreen)
	case health.StatusDegraded:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}
