// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

// Package main is the entry point for the seedmap server.
//
// Seedmap keeps a shared set of map markers per seed. Browsers connected to
// /ws/{seed} see every add and remove made on that seed, whether it came
// over the socket or the HTTP API.
//
// # Startup
//
//  1. Configuration: defaults, config.yaml, then environment (koanf v2)
//  2. Store: memory, sqlite, postgres or badger, behind a circuit breaker
//  3. Live layer: room registry, broadcaster, marker service, hub
//  4. HTTP: chi router with the marker API, health, metrics and /ws/{seed}
//  5. Supervisor tree: store maintenance, hub and HTTP server
//
// # Configuration
//
// Common environment variables:
//   - PORT (default 8000), HOST
//   - DATABASE_URL: selects postgres; without it markers go to ./app.db
//   - PGSSLMODE=require: appends sslmode=require to DATABASE_URL
//   - STORE_DRIVER: memory, sqlite, postgres or badger
//   - CORS_ORIGINS: comma separated, "*" by default
//   - LOG_LEVEL, LOG_FORMAT
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the supervisor tree: the HTTP server drains,
// every live session gets a going-away close frame, and the store is closed.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/seedmap/internal/api"
	"github.com/tomtom215/seedmap/internal/config"
	"github.com/tomtom215/seedmap/internal/logging"
	"github.com/tomtom215/seedmap/internal/markers"
	"github.com/tomtom215/seedmap/internal/store"
	"github.com/tomtom215/seedmap/internal/supervisor"
	"github.com/tomtom215/seedmap/internal/supervisor/services"
	ws "github.com/tomtom215/seedmap/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("driver", cfg.Store.ResolvedDriver()).
		Bool("database_url", cfg.Store.DatabaseConfigured()).
		Str("environment", cfg.Server.Environment).
		Msg("Starting seedmap")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	openCtx, openCancel := context.WithTimeout(ctx, 30*time.Second)
	markerStore, err := store.New(openCtx, &cfg.Store)
	openCancel()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open marker store")
	}
	defer func() {
		if err := markerStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing marker store")
		}
	}()

	registry := ws.NewRegistry()
	broadcaster := ws.NewBroadcaster(registry)
	service := markers.NewService(markerStore, broadcaster)
	hub := ws.NewHub(cfg.WebSocket, registry, broadcaster, service)

	handler := api.NewHandler(service, markerStore, hub, cfg)
	chiMW := api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(&cfg.Security))
	router := api.NewRouter(handler, chiMW, cfg.Server.StaticDir)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})

	if m, ok := store.AsMaintainer(markerStore); ok {
		tree.AddStoreService(services.NewStoreMaintenanceService(m, cfg.Store.BadgerGCInterval))
		logging.Info().Dur("interval", cfg.Store.BadgerGCInterval).Msg("Store maintenance service added")
	}
	tree.AddRealtimeService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)

	// ServeBackground sends exactly one result and never closes the channel.
	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
		cancel()
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Seedmap stopped")
}
