// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the portal CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slportal",
		Short: "SL Portal - the game server's web portal",
		Long: `SL Portal serves the game server's website: player accounts with
session-based authentication, announcements, and server status.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSweepCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}
