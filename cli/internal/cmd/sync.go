package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccboard/ccboard/cli/internal/config"
	"github.com/ccboard/ccboard/cli/internal/scanner"
	syncer "github.com/ccboard/ccboard/cli/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Upload local usage aggregates to the leaderboard",
	RunE:  runSync,
}

func init() {
	syncCmd.Flags().Bool("dry-run", false, "show what would be uploaded without sending")
	rootCmd.AddCommand(syncCmd)
}

// syncResult summarizes one sync pass
type syncResult struct {
	Planned  int
	Uploaded int
	Skipped  int
	Errors   []string
}

// doSync scans local logs, plans the delta against the server watermark and
// uploads it. A nil result with a nil error means there was nothing to send.
func doSync(ctx context.Context, cfg *config.Config, client *syncer.Client, warnf func(format string, args ...any)) (*syncResult, error) {
	result, err := scanner.New(cfg.ClaudeDir).Scan(scanner.Options{})
	if err != nil {
		if errors.Is(err, scanner.ErrNoData) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading usage data: %w", err)
	}

	status, err := client.SyncStatus(ctx, cfg.Username)
	if err != nil {
		return nil, fmt.Errorf("fetching sync status: %w", err)
	}

	planned, err := syncer.Plan(status.LastSyncDate, result.Days, time.Now())
	if errors.Is(err, syncer.ErrInvalidWatermark) {
		warnf("server sync date %q is unreadable, uploading the full history", status.LastSyncDate)
	} else if err != nil {
		return nil, err
	}
	if len(planned) == 0 {
		return nil, nil
	}

	resp, err := client.Upload(ctx, cfg.Username, syncer.ToUploadData(planned))
	if err != nil {
		return nil, err
	}

	return &syncResult{
		Planned:  len(planned),
		Uploaded: resp.Uploaded,
		Skipped:  resp.Skipped,
		Errors:   resp.Errors,
	}, nil
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, client, err := requireJoined()
	if err != nil {
		return err
	}

	warnf := func(format string, args ...any) {
		fmt.Printf("warning: "+format+"\n", args...)
	}

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		result, err := scanner.New(cfg.ClaudeDir).Scan(scanner.Options{})
		if err != nil {
			if errors.Is(err, scanner.ErrNoData) {
				fmt.Println("Nothing to sync.")
				return nil
			}
			return err
		}
		status, err := client.SyncStatus(cmd.Context(), cfg.Username)
		if err != nil {
			return fmt.Errorf("fetching sync status: %w", err)
		}
		planned, err := syncer.Plan(status.LastSyncDate, result.Days, time.Now())
		if errors.Is(err, syncer.ErrInvalidWatermark) {
			warnf("server sync date %q is unreadable, would upload the full history", status.LastSyncDate)
		} else if err != nil {
			return err
		}
		fmt.Printf("Would upload %d day(s):\n", len(planned))
		for _, d := range planned {
			fmt.Printf("  %s  %d requests  $%.2f\n", d.Date, d.RecordCount, d.Cost)
		}
		return nil
	}

	summary, err := doSync(cmd.Context(), cfg, client, warnf)
	if err != nil {
		return err
	}
	if summary == nil {
		fmt.Println("Already up to date.")
		return nil
	}

	fmt.Printf("Synced %d day(s): %d uploaded, %d already current.\n",
		summary.Planned, summary.Uploaded, summary.Skipped)
	for _, msg := range summary.Errors {
		fmt.Printf("  server: %s\n", msg)
	}
	return nil
}
