package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/dtroode/qapath-server/database"
	"github.com/dtroode/qapath-server/internal/config"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending schema migrations to the configured PostgreSQL database and exit.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	cmd.Println("Running migrations...")
	if err := database.Migrate(cmd.Context(), cfg.Database.DSN); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
