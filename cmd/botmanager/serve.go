package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/edgard/botmanager/internal/app"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(os.Stdout)
			if err != nil {
				return err
			}

			core, err := app.NewCore(cfg, log)
			if err != nil {
				log.Error("Failed to initialize core", "error", err)
				return err
			}
			defer core.Close()

			a, err := app.New(cfg, log, core)
			if err != nil {
				log.Error("Failed to initialize service", "error", err)
				return err
			}

			log.Info("Starting bot manager...", "addr", cfg.HTTP.Addr, "webhook_base", cfg.Webhook.Base)
			return a.Run(cmd.Context())
		},
	}
}
