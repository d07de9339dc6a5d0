package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/csvmigrate/internal/core"
	"github.com/JonMunkholm/csvmigrate/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP front end",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

// serve runs the server until ctx is cancelled, then drains in-flight
// migrations within SERVER_SHUTDOWN_TIMEOUT.
func (a *app) serve(ctx context.Context) error {
	if a.cfg.Upload.Timeout > 0 {
		core.MigrationTimeout = a.cfg.Upload.Timeout
	}

	srv := web.NewServer(a.cfg, a.profile, a.service(true, a.cfg.Upload.MaxFileSize))

	slog.Info("adapters registered",
		"count", core.AdapterCount(),
		"groups", len(core.Groups()),
	)
	slog.Info("configuration loaded",
		"addr", a.cfg.Server.Addr(),
		"audit_dir", a.cfg.Migration.AuditDir,
		"max_concurrent", a.cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", a.cfg.Rate.Enabled,
		"api_key_required", a.cfg.Security.RequireAPIKey,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown incomplete", "error", err)
			return err
		}
		slog.Info("server stopped")
		return nil
	})

	return g.Wait()
}
