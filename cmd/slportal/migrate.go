// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/slportal/slportal/internal/config"
	"github.com/slportal/slportal/internal/store"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Run all pending database migrations against the PostgreSQL database.`,
		RunE:  runMigrate,
	}

	cmd.Flags().String("database.url", "", "PostgreSQL connection URL (default: DATABASE_URL env)")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	databaseURL := cfg.Database.URL
	if databaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url or the DATABASE_URL environment variable is required")
	}

	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			cmd.PrintErrln("warning: failed to close migrator:", closeErr)
		}
	}()

	cmd.Println("Running migrations...")
	if err := migrator.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}

	v, dirty, err := migrator.Version()
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "read version").Wrap(err)
	}
	if dirty {
		return oops.Code("MIGRATION_FAILED").Errorf("database is in a dirty migration state at version %d", v)
	}

	cmd.Printf("Migrations completed successfully (version %d)\n", v)
	return nil
}
