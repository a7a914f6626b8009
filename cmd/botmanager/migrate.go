package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/edgard/botmanager/internal/database"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(os.Stderr)
			if err != nil {
				return err
			}

			db, err := database.NewDB(cfg.Database.Path)
			if err != nil {
				log.Error("Failed to migrate database", "path", cfg.Database.Path, "error", err)
				return err
			}
			database.CloseDB(db)

			log.Info("Database is up to date", "path", cfg.Database.Path)
			return nil
		},
	}
}
