package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccboard/ccboard/cli/internal/config"
	"github.com/ccboard/ccboard/cli/internal/output"
	syncer "github.com/ccboard/ccboard/cli/internal/sync"
)

var statsCmd = &cobra.Command{
	Use:   "stats [username]",
	Short: "Show a user's ranks, totals and recent activity",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	username := cfg.Username
	if len(args) == 1 {
		username = args[0]
	}
	if username == "" {
		return fmt.Errorf("no username given and this device has not joined; run 'ccboard stats <username>'")
	}

	client, err := syncer.NewClient(cfg.Server)
	if err != nil {
		return err
	}

	resp, err := client.UserStats(cmd.Context(), username)
	if err != nil {
		return err
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		output.PrintJSON(resp)
		return nil
	}
	output.PrintUserStats(resp)
	return nil
}
