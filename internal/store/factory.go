// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tomtom215/seedmap/internal/config"
	"github.com/tomtom215/seedmap/internal/logging"
)

// New opens the backend selected by cfg, pings it, and wraps it with the
// circuit breaker (when enabled) and metrics.
func New(ctx context.Context, cfg *config.StoreConfig) (Store, error) {
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := backend.Ping(ctx); err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("ping %s store: %w", backend.Name(), err)
	}

	var s Store = backend
	if cfg.BreakerEnabled {
		s = NewBreakerStore(s, BreakerSettings{
			FailureThreshold: cfg.BreakerFailureThreshold,
			MaxRequests:      cfg.BreakerMaxRequests,
			Interval:         cfg.BreakerInterval,
			Timeout:          cfg.BreakerTimeout,
		})
	}

	logging.Info().
		Str("driver", backend.Name()).
		Bool("circuit_breaker", cfg.BreakerEnabled).
		Msg("Marker store ready")

	return Instrument(s), nil
}

func openBackend(ctx context.Context, cfg *config.StoreConfig) (Store, error) {
	switch driver := cfg.ResolvedDriver(); driver {
	case config.DriverMemory:
		logging.Warn().Msg("Using in-memory marker store; markers are lost on restart")
		return NewMemoryStore(), nil

	case config.DriverSQLite:
		if err := ensureParentDir(cfg.SQLitePath); err != nil {
			return nil, err
		}
		return OpenSQLiteStore(ctx, cfg.SQLitePath)

	case config.DriverPostgres:
		return OpenPostgresStore(ctx, cfg.ResolvedDSN())

	case config.DriverBadger:
		if err := os.MkdirAll(cfg.BadgerPath, 0o750); err != nil {
			return nil, fmt.Errorf("create badger directory: %w", err)
		}
		return OpenBadgerStore(cfg.BadgerPath)

	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}
