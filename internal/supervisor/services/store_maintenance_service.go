// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package services

import (
	"context"
	"time"

	"github.com/tomtom215/seedmap/internal/logging"
)

// Maintainer is satisfied by stores with periodic housekeeping, such as
// the badger value log GC.
type Maintainer interface {
	Maintain(ctx context.Context) error
}

// StoreMaintenanceService calls Maintain on a fixed interval. A failed
// pass is logged and retried on the next tick rather than returned, so a
// transient error does not burn supervisor restarts.
type StoreMaintenanceService struct {
	store    Maintainer
	interval time.Duration
	name     string
}

// NewStoreMaintenanceService wraps store. A non-positive interval means 10m.
func NewStoreMaintenanceService(store Maintainer, interval time.Duration) *StoreMaintenanceService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &StoreMaintenanceService{
		store:    store,
		interval: interval,
		name:     "store-maintenance",
	}
}

// Serve implements suture.Service.
func (m *StoreMaintenanceService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.runOnce(ctx)
		}
	}
}

func (m *StoreMaintenanceService) runOnce(ctx context.Context) {
	start := time.Now()
	if err := m.store.Maintain(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		logging.Warn().Err(err).Str("service", m.name).Msg("store maintenance failed")
		return
	}
	logging.Debug().Str("service", m.name).Dur("took", time.Since(start)).Msg("store maintenance complete")
}

// String names the service in supervisor logs.
func (m *StoreMaintenanceService) String() string {
	return m.name
}
