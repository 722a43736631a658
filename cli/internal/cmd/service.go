package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

var serviceCmd = &cobra.Command{
	Use:       "service [install|start|stop|uninstall|status|run]",
	Short:     "Manage the background sync service",
	Long:      "Installs ccboard as a background service that syncs usage on an interval.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"install", "start", "stop", "uninstall", "status", "run"},
	RunE:      runService,
}

func init() {
	serviceCmd.Flags().Duration("interval", time.Hour, "sync interval (e.g. 1h, 30m)")
	rootCmd.AddCommand(serviceCmd)
}

// syncService implements service.Interface for background syncing
type syncService struct {
	interval time.Duration
	stop     chan struct{}
	logger   service.Logger
}

func (s *syncService) Start(svc service.Service) error {
	s.stop = make(chan struct{})
	go s.run()
	return nil
}

func (s *syncService) Stop(svc service.Service) error {
	close(s.stop)
	return nil
}

func (s *syncService) run() {
	// Sync immediately on start
	s.doSync()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.doSync()
		case <-s.stop:
			return
		}
	}
}

func (s *syncService) doSync() {
	cfg, client, err := requireJoined()
	if err != nil {
		s.errorf("%v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	summary, err := doSync(ctx, cfg, client, s.warnf)
	if err != nil {
		s.errorf("sync failed: %v", err)
		return
	}
	if summary == nil {
		return
	}
	if s.logger != nil {
		s.logger.Infof("synced %d day(s): %d uploaded, %d current",
			summary.Planned, summary.Uploaded, summary.Skipped)
	}
}

func (s *syncService) warnf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Warningf(format, args...)
	}
}

func (s *syncService) errorf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Errorf(format, args...)
	}
}

func runService(cmd *cobra.Command, args []string) error {
	interval, _ := cmd.Flags().GetDuration("interval")

	svcConfig := &service.Config{
		Name:        "ccboard-sync",
		DisplayName: "ccboard Sync Service",
		Description: "Automatically syncs Claude Code usage to the leaderboard",
		Arguments:   []string{"service", "run", fmt.Sprintf("--interval=%s", interval)},
	}

	svc := &syncService{interval: interval}
	s, err := service.New(svc, svcConfig)
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}
	svc.logger, _ = s.Logger(nil)

	switch args[0] {
	case "install":
		if _, _, err := requireJoined(); err != nil {
			return err
		}
		if err := s.Install(); err != nil {
			return fmt.Errorf("installing service: %w", err)
		}
		if err := s.Start(); err != nil {
			return fmt.Errorf("service installed but failed to start: %w", err)
		}
		fmt.Println("Service installed and started.")
		fmt.Printf("Sync interval: %s\n", interval)

	case "start":
		if err := s.Start(); err != nil {
			return fmt.Errorf("starting service: %w", err)
		}
		fmt.Println("Service started.")

	case "stop":
		if err := s.Stop(); err != nil {
			return fmt.Errorf("stopping service: %w", err)
		}
		fmt.Println("Service stopped.")

	case "uninstall":
		s.Stop() // ignore error
		if err := s.Uninstall(); err != nil {
			return fmt.Errorf("uninstalling service: %w", err)
		}
		fmt.Println("Service uninstalled.")

	case "status":
		status, err := s.Status()
		if err != nil {
			fmt.Printf("Service status: not installed or error (%v)\n", err)
			return nil
		}
		switch status {
		case service.StatusRunning:
			fmt.Println("Service status: running")
		case service.StatusStopped:
			fmt.Println("Service status: stopped")
		default:
			fmt.Println("Service status: unknown")
		}

	case "run":
		// Invoked by the service manager, not by users
		return s.Run()
	}

	return nil
}
