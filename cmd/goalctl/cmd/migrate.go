package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/templui/goalcoach/internal/config"
	"github.com/templui/goalcoach/internal/db"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations (DB_DRIVER, DB_CONNECTION)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			conn, err := db.Init(cfg.DBDriver, cfg.DBConnection)
			if err != nil {
				return err
			}
			defer conn.Close()
			return db.RunMigrations(cmd.Context(), conn.DB, cfg.DBDriver)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			conn, err := db.Init(cfg.DBDriver, cfg.DBConnection)
			if err != nil {
				return err
			}
			defer conn.Close()
			err = db.MigrateDown(cmd.Context(), conn.DB, cfg.DBDriver)
			if err != nil {
				return fmt.Errorf("failed to roll back: %w", err)
			}
			return nil
		},
	})

	return cmd
}
