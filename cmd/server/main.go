// Package main implements the Jarvis server: the HTTP API for search,
// briefings, and why-explanations, plus the NATS-driven ingest/job
// consumers and the scheduled pattern-detection/backlog cron jobs.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	root := &cobra.Command{
		Use:   "jarvis-server",
		Short: "Jarvis API server and background processors",
	}
	root.AddCommand(serveCmd(logger))
	root.AddCommand(migrateCmd(logger))

	if err := root.Execute(); err != nil {
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func migrateCmd(logger *slog.Logger) *cobra.Command {
	var migrationsDir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg := loadConfig()
			if err := runMigrate(cfg.PostgresDSN, migrationsDir); err != nil {
				return err
			}
			logger.Info("migrations applied")
			return nil
		},
	}
	cmd.Flags().StringVar(&migrationsDir, "migrations-dir", "", "path to migrations directory (default: alongside the binary)")
	return cmd
}

func serveCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background processors",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()
			return run(cmd.Context(), cfg, logger)
		},
	}
}
