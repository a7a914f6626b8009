package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/edgard/botmanager/internal/app"
	"github.com/edgard/botmanager/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the bot tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// stdout carries the protocol
			cfg, log, err := loadConfig(os.Stderr)
			if err != nil {
				return err
			}
			if cfg.MCP.UserID == "" {
				return fmt.Errorf("mcp.user_id must be set to run the MCP server")
			}

			core, err := app.NewCore(cfg, log)
			if err != nil {
				log.Error("Failed to initialize core", "error", err)
				return err
			}
			defer core.Close()

			user, err := core.Store.GetUser(cmd.Context(), cfg.MCP.UserID)
			if err != nil {
				return err
			}
			if user == nil {
				return fmt.Errorf("mcp user %s does not exist", cfg.MCP.UserID)
			}

			log.Info("Starting MCP server", "user_id", user.ID)
			return mcp.NewServer(core.Bots, user.ID, log).Serve()
		},
	}
}
