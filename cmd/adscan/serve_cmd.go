// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ManuGH/adscan/internal/adstore"
	"github.com/ManuGH/adscan/internal/api"
	"github.com/ManuGH/adscan/internal/config"
	"github.com/ManuGH/adscan/internal/detector"
	"github.com/ManuGH/adscan/internal/faults"
	"github.com/ManuGH/adscan/internal/jobs"
	xglog "github.com/ManuGH/adscan/internal/log"
	"github.com/ManuGH/adscan/internal/platform/httpx"
	"github.com/ManuGH/adscan/internal/playlist"
	"github.com/ManuGH/adscan/internal/telemetry"
)

const shutdownTimeout = 15 * time.Second

func (a *app) serveCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the detection job API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var override func(*config.AppConfig)
			if cmd.Flags().Changed("listen") {
				override = func(c *config.AppConfig) { c.Server.ListenAddr = listen }
			}
			return a.runServe(cmd.Context(), override, nil)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config, :8088)")
	return cmd
}

// runServe blocks until ctx is cancelled. ready, when non-nil, receives the
// bound address once the listener is up.
func (a *app) runServe(ctx context.Context, override func(*config.AppConfig), ready chan<- string) error {
	var overrides []func(*config.AppConfig)
	if override != nil {
		overrides = append(overrides, override)
	}
	cfg, loader, err := a.loadConfig(overrides...)
	if err != nil {
		return err
	}
	logger := xglog.WithComponent("serve")

	tp, err := telemetry.NewProvider(ctx, telemetryConfig(cfg))
	if err != nil {
		return fmt.Errorf("%w: %w", faults.ErrConfiguration, err)
	}
	defer func() { _ = tp.Shutdown(context.WithoutCancel(ctx)) }()

	holder := config.NewHolder(cfg, loader, a.resolveConfigPath())
	if err := holder.StartWatcher(ctx); err != nil {
		logger.Warn().Err(err).Str(xglog.FieldEvent, "config.watcher_failed").Msg("config hot reload disabled")
	}
	defer holder.Stop()

	store, err := adstore.Open(ctx, cfg.Store, xglog.WithComponent("adstore"))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	det := detector.New(detector.Options{
		Playlists: playlist.NewFetcher(httpx.NewClient(cfg.HTTP.Timeout, cfg.HTTP.UserAgent), xglog.WithComponent("playlist")),
		Sources:   a.sources(cfg.Frames, xglog.WithComponent("frames")),
	})
	manager := jobs.NewManager(jobs.Options{
		Runner:    det,
		Store:     store,
		Workers:   cfg.Server.MaxConcurrentJobs,
		Queue:     cfg.Server.QueueSize,
		ResultDir: cfg.Server.ResultDir,
		Logger:    xglog.WithComponent("jobs"),
	})
	manager.Start(ctx)
	defer manager.Stop()

	tracing := ""
	if cfg.Telemetry.Enabled {
		tracing = cfg.LogService
	}
	checkSource := func(ctx context.Context, locator string) error {
		return holder.Get().Server.Sources.Policy().Check(ctx, locator)
	}
	srv := api.NewServer(api.Options{
		Jobs:            manager,
		Store:           store,
		Defaults:        func() config.Detect { return holder.Get().Detect },
		CheckSource:     checkSource,
		RateLimitPerMin: cfg.Server.RateLimitPerMin,
		TracingService:  tracing,
		Logger:          xglog.WithComponent("api"),
	})

	ln, err := net.Listen("tcp", cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("%w: listen %s: %w", faults.ErrConfiguration, cfg.Server.ListenAddr, err)
	}
	httpSrv := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info().
		Str(xglog.FieldEvent, "server.listening").
		Str("addr", ln.Addr().String()).
		Str("store", cfg.Store.Backend).
		Int("workers", cfg.Server.MaxConcurrentJobs).
		Msg("job API listening")
	if ready != nil {
		ready <- ln.Addr().String()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.Serve(ln) }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	<-errCh
	logger.Info().Str(xglog.FieldEvent, "server.stopped").Msg("job API stopped")
	return nil
}
