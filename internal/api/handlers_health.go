// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package api

import (
	"context"
	"net/http"
	"time"
)

const healthPingTimeout = 2 * time.Second

// Health handles GET /api/health. db reports whether DATABASE_URL is
// configured; store reports whether the backend answers a ping.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	storeStatus := "down"
	if h.pingStore(r.Context()) == nil {
		storeStatus = "up"
	}

	driver := ""
	dbConfigured := false
	if h.config != nil {
		driver = h.config.Store.ResolvedDriver()
		dbConfigured = h.config.Store.DatabaseConfigured()
	}

	data := map[string]interface{}{
		"ok":     true,
		"db":     dbConfigured,
		"driver": driver,
		"store":  storeStatus,
		"uptime": time.Since(h.startTime).Seconds(),
	}
	if h.hub != nil {
		data["rooms"] = h.hub.RoomCount()
		data["sessions"] = h.hub.SessionCount()
	}
	NewResponseWriter(w, r).Success(data)
}

// HealthLive handles GET /api/health/live. It only reports that the
// process is serving.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles GET /api/health/ready: 200 when the store answers a
// ping, 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if err := h.pingStore(r.Context()); err != nil {
		rw.ErrorWithData(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Marker store not ready", nil,
			map[string]interface{}{"ready": false})
		return
	}
	rw.Success(map[string]interface{}{"ready": true})
}

func (h *Handler) pingStore(ctx context.Context) error {
	if h.store == nil {
		return errNoStore
	}
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	return h.store.Ping(ctx)
}
