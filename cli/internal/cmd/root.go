package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccboard/ccboard/cli/internal/config"
	syncer "github.com/ccboard/ccboard/cli/internal/sync"
)

var rootCmd = &cobra.Command{
	Use:   "ccboard",
	Short: "Claude Code usage leaderboard client",
	Long: `ccboard scans your local Claude Code logs, reports daily usage,
and optionally uploads aggregates to a shared leaderboard server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	// Bare invocation shows the daily report, same as "ccboard report".
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, args)
	},
}

// SetVersion wires the build version into the command tree
func SetVersion(v string) {
	rootCmd.Version = v
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	addReportFlags(rootCmd)
}

// requireJoined loads the config and builds an API client, failing with a
// hint when the device has not joined a leaderboard yet.
func requireJoined() (*config.Config, *syncer.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if !cfg.Joined() {
		return nil, nil, fmt.Errorf("not joined yet: run 'ccboard join <username>' first")
	}
	client, err := syncer.NewClient(cfg.Server)
	if err != nil {
		return nil, nil, err
	}
	return cfg, client, nil
}
