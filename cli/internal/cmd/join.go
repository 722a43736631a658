package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccboard/ccboard/cli/internal/config"
	syncer "github.com/ccboard/ccboard/cli/internal/sync"
)

var joinCmd = &cobra.Command{
	Use:   "join <username>",
	Short: "Register this device on a leaderboard server",
	Args:  cobra.ExactArgs(1),
	RunE:  runJoin,
}

func init() {
	joinCmd.Flags().String("server", "", "leaderboard server URL")
	rootCmd.AddCommand(joinCmd)
}

func runJoin(cmd *cobra.Command, args []string) error {
	// Usernames are case-insensitive on the server side
	username := strings.ToLower(strings.TrimSpace(args[0]))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Joined() && cfg.Username != username {
		return fmt.Errorf("already joined as %q; remove ~/.ccboard.yaml to start over", cfg.Username)
	}

	if server, _ := cmd.Flags().GetString("server"); server != "" {
		cfg.Server = server
	}
	if cfg.Server == "" {
		return fmt.Errorf("no server configured: pass --server or run 'ccboard config --server <url>'")
	}

	// Save first so a device ID exists before registration
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	client, err := syncer.NewClient(cfg.Server)
	if err != nil {
		return err
	}
	if err := client.Register(cmd.Context(), username, cfg.DeviceID); err != nil {
		return err
	}

	cfg.Username = username
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("Joined %s as %s.\n", cfg.Server, username)
	fmt.Println("Run 'ccboard sync' to upload your usage.")
	return nil
}
