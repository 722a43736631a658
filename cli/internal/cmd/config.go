package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccboard/ccboard/cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update the CLI configuration",
	RunE:  runConfig,
}

func init() {
	configCmd.Flags().String("server", "", "leaderboard server URL")
	configCmd.Flags().String("dir", "", "Claude data directory to scan")
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	server, _ := cmd.Flags().GetString("server")
	dir, _ := cmd.Flags().GetString("dir")

	if server == "" && dir == "" {
		if cfg.Server == "" && !cfg.Joined() {
			fmt.Println("No configuration found. Run 'ccboard join <username> --server <url>' to get started.")
			return nil
		}
		fmt.Printf("Server:    %s\n", cfg.Server)
		if cfg.Joined() {
			fmt.Printf("Username:  %s\n", cfg.Username)
		}
		if cfg.DeviceID != "" {
			fmt.Printf("Device ID: %s\n", cfg.DeviceID)
		}
		if cfg.ClaudeDir != "" {
			fmt.Printf("Data dir:  %s\n", cfg.ClaudeDir)
		}
		return nil
	}

	if server != "" {
		cfg.Server = server
	}
	if dir != "" {
		cfg.ClaudeDir = dir
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Println("Configuration saved.")
	return nil
}
