// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/slportal/slportal/internal/config"
	"github.com/slportal/slportal/internal/content"
	contentpg "github.com/slportal/slportal/internal/content/postgres"
	"github.com/slportal/slportal/internal/store"
)

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	statusCfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the game server status",
		Long:  `Show the game server status snapshot recorded in the portal's site settings.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, statusCfg)
		},
	}

	cmd.Flags().BoolVar(&statusCfg.jsonOutput, "json", false, "output status as JSON")
	cmd.Flags().String("database.url", "", "PostgreSQL connection URL (default: DATABASE_URL env)")

	return cmd
}

func runStatus(cmd *cobra.Command, statusCfg *statusConfig) error {
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

	svc, err := content.NewService(
		contentpg.NewAnnouncementRepository(pool),
		contentpg.NewSettingsRepository(pool),
	)
	if err != nil {
		return err
	}

	status, err := svc.ServerStatus(ctx)
	if err != nil {
		return oops.Code("STATUS_FAILED").With("operation", "fetch server status").Wrap(err)
	}

	var output string
	if statusCfg.jsonOutput {
		output, err = formatStatusJSON(status)
		if err != nil {
			return oops.Code("STATUS_FAILED").With("operation", "format JSON").Wrap(err)
		}
	} else {
		output = formatStatusTable(status)
	}

	cmd.Println(output)
	return nil
}

func formatStatusJSON(status *content.ServerStatus) (string, error) {
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func formatStatusTable(status *content.ServerStatus) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)

	fmt.Fprintf(w, "NAME\t%s\n", status.Name)
	fmt.Fprintf(w, "ADDRESS\t%s\n", status.Address)
	fmt.Fprintf(w, "PLAYERS\t%d/%d\n", status.OnlinePlayers, status.MaxPlayers)
	if status.MOTD != "" {
		fmt.Fprintf(w, "MOTD\t%s\n", status.MOTD)
	}
	fmt.Fprintf(w, "CHECKED\t%s\n", status.CheckedAt.Format("2006-01-02 15:04:05 MST"))
	_ = w.Flush()

	return strings.TrimRight(sb.String(), "\n")
}
