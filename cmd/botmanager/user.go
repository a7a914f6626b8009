package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/edgard/botmanager/internal/auth"
	"github.com/edgard/botmanager/internal/database"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage API users",
	}
	cmd.AddCommand(newUserCreateCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user and print its API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(os.Stderr)
			if err != nil {
				return err
			}

			db, err := database.NewDB(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer database.CloseDB(db)

			user, key, err := auth.CreateUser(cmd.Context(), database.NewStore(db, log), name)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:      %s\n", user.ID)
			fmt.Fprintf(out, "api key: %s\n", key)
			fmt.Fprintln(out, "The API key is shown only once.")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name of the user")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
