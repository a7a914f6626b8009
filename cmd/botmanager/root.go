package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/edgard/botmanager/internal/config"
	"github.com/edgard/botmanager/internal/logger"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "botmanager",
		Short: "Register Telegram bots and manage their webhooks",
		Long: `botmanager registers Telegram bots by token, points their webhooks at
the configured address and re-registers them on demand.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "./config.yaml", "Path to configuration file")

	root.AddCommand(
		newServeCmd(),
		newMCPCmd(),
		newMigrateCmd(),
		newUserCmd(),
	)
	return root
}

// loadConfig loads the configuration and installs the default logger writing to w.
func loadConfig(w io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", configPath, "error", err)
		return nil, nil, err
	}

	log := logger.NewLogger(w, cfg.Log.Level, cfg.Log.JSON)
	log.Debug("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)
	return cfg, log, nil
}
