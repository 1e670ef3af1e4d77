// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/tripwire/internal/api"
	"github.com/tomtom215/tripwire/internal/config"
	"github.com/tomtom215/tripwire/internal/logging"
	"github.com/tomtom215/tripwire/internal/supervisor"
	"github.com/tomtom215/tripwire/internal/supervisor/services"
	ws "github.com/tomtom215/tripwire/internal/websocket"
)

func main() {
	cfg, configPath, err := config.LoadWithPath()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(cfg.LoggerConfig())
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("addr", cfg.Server.ListenAddr()).
		Str("config_file", configPath).
		Bool("detection_enabled", cfg.Detection.Enabled).
		Msg("Starting Tripwire")

	wsHub := ws.NewHub()

	engine, err := initEngine(cfg, wsHub)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize detection engine")
	}

	handler := api.NewHandler(engine, wsHub, cfg)
	router, err := api.NewRouter(handler, cfg).SetupChi()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build router")
	}

	server := &http.Server{
		Addr:              cfg.Server.ListenAddr(),
		Handler:           router,
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddDataService(services.NewRetentionService(engine, cfg.Retention.Interval))
	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	tree.AddMessagingService(services.NewDetectionService(engine, cfg.Detection.MetricsInterval))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	if configPath != "" {
		if err := config.WatchConfigFile(configPath, func() { reloadConfig(engine) }); err != nil {
			logging.Warn().Err(err).Str("path", configPath).Msg("Config hot reload unavailable")
		} else {
			logging.Info().Str("path", configPath).Msg("Watching config file for changes")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	if err := waitForTree(ctx, errCh); err != nil {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Tripwire stopped")
}

// waitForTree blocks until the supervisor tree behind errCh has stopped.
// ServeBackground sends exactly one value and never closes the channel, so
// it is received once on either path. Cancellation is not an error.
func waitForTree(ctx context.Context, errCh <-chan error) error {
	var err error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for services to stop")
		err = <-errCh
	case err = <-errCh:
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
