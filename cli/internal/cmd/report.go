package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccboard/ccboard/cli/internal/config"
	"github.com/ccboard/ccboard/cli/internal/output"
	"github.com/ccboard/ccboard/cli/internal/scanner"
)

var reportCmd = &cobra.Command{
	Use:     "report",
	Aliases: []string{"daily"},
	Short:   "Show daily usage from local logs",
	RunE:    runReport,
}

func init() {
	addReportFlags(reportCmd)
	rootCmd.AddCommand(reportCmd)
}

// addReportFlags registers the report flags on cmd. The root command takes
// the same set so a bare invocation behaves like "report".
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().String("since", "", "start date filter (YYYY-MM-DD)")
	cmd.Flags().String("until", "", "end date filter (YYYY-MM-DD)")
	cmd.Flags().String("project", "", "only include records from this project")
	cmd.Flags().String("dir", "", "Claude data directory to scan")
	cmd.Flags().String("timezone", "", "timezone for day grouping (e.g. America/New_York)")
	cmd.Flags().Bool("json", false, "output as JSON")
	cmd.Flags().BoolP("compact", "c", false, "force compact table output")
}

func runReport(cmd *cobra.Command, _ []string) error {
	opts := scanner.Options{}
	opts.Project, _ = cmd.Flags().GetString("project")

	if since, _ := cmd.Flags().GetString("since"); since != "" {
		t, err := time.Parse("2006-01-02", since)
		if err != nil {
			return fmt.Errorf("invalid --since date, use YYYY-MM-DD")
		}
		opts.Since = t
	}
	if until, _ := cmd.Flags().GetString("until"); until != "" {
		t, err := time.Parse("2006-01-02", until)
		if err != nil {
			return fmt.Errorf("invalid --until date, use YYYY-MM-DD")
		}
		// Include the entire day
		opts.Until = t.Add(24*time.Hour - time.Second)
	}
	if tz, _ := cmd.Flags().GetString("timezone"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("invalid timezone: %s", tz)
		}
		opts.Location = loc
	}

	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		if cfg, err := config.Load(); err == nil {
			dir = cfg.ClaudeDir
		}
	}

	result, err := scanner.New(dir).Scan(opts)
	if err != nil {
		if errors.Is(err, scanner.ErrNoData) {
			fmt.Println("No usage data found in ~/.claude/projects/")
			return nil
		}
		return fmt.Errorf("reading usage data: %w", err)
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		output.PrintJSON(result.Days)
		return nil
	}

	compact, _ := cmd.Flags().GetBool("compact")
	output.PrintDailyReport(result.Days, output.TableOptions{ForceCompact: compact})

	if result.Skipped > 0 {
		fmt.Fprintf(os.Stderr, "Skipped %d unusable log lines.\n", result.Skipped)
	}
	return nil
}
