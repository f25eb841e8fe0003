// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SL Portal Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/slportal/slportal/internal/auth"
	authpg "github.com/slportal/slportal/internal/auth/postgres"
	"github.com/slportal/slportal/internal/config"
	"github.com/slportal/slportal/internal/content"
	contentpg "github.com/slportal/slportal/internal/content/postgres"
	"github.com/slportal/slportal/internal/logging"
	"github.com/slportal/slportal/internal/observability"
	"github.com/slportal/slportal/internal/store"
	"github.com/slportal/slportal/internal/web"
)

// sweepInterval is how often expired sessions are purged in the
// background while serving.
const sweepInterval = 15 * time.Minute

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the portal HTTP server",
		Long: `Start the portal HTTP server, which exposes the authentication,
announcement, and server status APIs.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd)
		},
	}

	cmd.Flags().String("server.addr", config.DefaultAddr, "HTTP listen address")
	cmd.Flags().String("server.metrics_addr", config.DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("server.log_format", config.DefaultLogFormat, "log format (json or text)")
	cmd.Flags().String("database.url", "", "PostgreSQL connection URL (default: DATABASE_URL env)")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url or the DATABASE_URL environment variable is required")
	}

	logger := logging.Setup("slportal", version, cfg.Server.LogFormat, os.Stderr)
	slog.SetDefault(logger)

	logger.Info("starting portal",
		"addr", cfg.Server.Addr,
		"log_format", cfg.Server.LogFormat,
	)

	pool, err := store.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	logger.Info("connected to database")

	governor, err := auth.NewGovernor(authpg.NewLoginAttemptRepository(pool), auth.LockoutPolicy{
		Enabled:   cfg.Auth.Lockout.Enabled,
		Threshold: cfg.Auth.Lockout.Threshold,
		Duration:  cfg.Auth.Lockout.Duration(),
	})
	if err != nil {
		return err
	}

	authService, err := auth.NewService(
		authpg.NewUserRepository(pool),
		authpg.NewSessionRepository(pool),
		governor,
		auth.NewArgon2idHasher(),
		auth.WithSessionLifetime(cfg.Auth.SessionLifetime()),
		auth.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	guard, err := auth.NewCSRFGuard(authpg.NewCSRFRepository(pool))
	if err != nil {
		return err
	}

	contentService, err := content.NewService(
		contentpg.NewAnnouncementRepository(pool),
		contentpg.NewSettingsRepository(pool),
	)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	obsServer := observability.NewServer(cfg.Server.MetricsAddr, func() bool {
		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		defer pingCancel()
		return pool.Ping(pingCtx) == nil
	})
	if cfg.Server.MetricsAddr != "" {
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.Code("SERVER_START_FAILED").With("component", "observability").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	webServer, err := web.NewServer(web.Config{
		Addr:             cfg.Server.Addr,
		Auth:             authService,
		Guard:            guard,
		Content:          contentService,
		Metrics:          obsServer.Metrics(),
		Logger:           logger,
		SecureCookies:    cfg.Auth.SecureCookies,
		RememberLifetime: cfg.Auth.RememberLifetime(),
	})
	if err != nil {
		return err
	}

	webErrChan, err := webServer.Start()
	if err != nil {
		return oops.Code("SERVER_START_FAILED").With("component", "web").Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, webErrChan, "web")

	go sweepSessions(ctx, authService, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := webServer.Stop(shutdownCtx); err != nil {
		logger.Warn("failed to stop web server cleanly", "error", err)
	}
	if cfg.Server.MetricsAddr != "" {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("failed to stop observability server cleanly", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

// sweepSessions purges expired sessions on a timer until ctx is done.
func sweepSessions(ctx context.Context, svc *auth.Service, logger *slog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.SweepExpiredSessions(ctx)
			if err != nil {
				logger.Warn("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("swept expired sessions", "count", n)
			}
		}
	}
}

// monitorServerErrors cancels the run context when a server's error
// channel yields an error.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errChan <-chan error, name string) {
	select {
	case <-ctx.Done():
	case err, ok := <-errChan:
		if ok && err != nil {
			slog.Error("server failed", "server", name, "error", err)
			cancel()
		}
	}
}
