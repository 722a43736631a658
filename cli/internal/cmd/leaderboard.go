package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ccboard/ccboard/cli/internal/config"
	"github.com/ccboard/ccboard/cli/internal/output"
	syncer "github.com/ccboard/ccboard/cli/internal/sync"
)

var leaderboardCmd = &cobra.Command{
	Use:     "leaderboard",
	Aliases: []string{"top"},
	Short:   "Show the leaderboard",
	RunE:    runLeaderboard,
}

func init() {
	leaderboardCmd.Flags().String("metric", "requests", "ranking metric: requests, tokens, or cost")
	leaderboardCmd.Flags().String("period", "all", "time window: all, month, or week")
	leaderboardCmd.Flags().Int("limit", 20, "number of entries to show")
	leaderboardCmd.Flags().Int("offset", 0, "pagination offset")
	leaderboardCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(leaderboardCmd)
}

func runLeaderboard(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	client, err := syncer.NewClient(cfg.Server)
	if err != nil {
		return err
	}

	metric, _ := cmd.Flags().GetString("metric")
	period, _ := cmd.Flags().GetString("period")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	resp, err := client.Leaderboard(cmd.Context(), metric, period, limit, offset)
	if err != nil {
		return err
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		output.PrintJSON(resp)
		return nil
	}
	output.PrintLeaderboard(resp, cfg.Username)
	return nil
}
