// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/slportal/slportal/internal/auth"
	authpg "github.com/slportal/slportal/internal/auth/postgres"
	"github.com/slportal/slportal/internal/config"
	"github.com/slportal/slportal/internal/store"
)

// NewSweepCmd creates the sweep subcommand, a one-shot purge of expired
// sessions for use from cron or an operator shell.
func NewSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired sessions",
		Long:  `Delete all sessions whose expiry has passed and report how many were removed.`,
		RunE:  runSweep,
	}

	cmd.Flags().String("database.url", "", "PostgreSQL connection URL (default: DATABASE_URL env)")

	return cmd
}

func runSweep(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url or the DATABASE_URL environment variable is required")
	}

	ctx := cmd.Context()
	pool, err := store.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	governor, err := auth.NewGovernor(authpg.NewLoginAttemptRepository(pool), auth.DefaultLockoutPolicy())
	if err != nil {
		return err
	}
	svc, err := auth.NewService(
		authpg.NewUserRepository(pool),
		authpg.NewSessionRepository(pool),
		governor,
		auth.NewArgon2idHasher(),
	)
	if err != nil {
		return err
	}

	n, err := svc.SweepExpiredSessions(ctx)
	if err != nil {
		return oops.Code("SWEEP_FAILED").Wrap(err)
	}

	cmd.Printf("Removed %d expired sessions\n", n)
	return nil
}
