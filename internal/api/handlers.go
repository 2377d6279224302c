// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/seedmap/internal/config"
	"github.com/tomtom215/seedmap/internal/logging"
	"github.com/tomtom215/seedmap/internal/markers"
	"github.com/tomtom215/seedmap/internal/store"
	ws "github.com/tomtom215/seedmap/internal/websocket"
)

// Handler holds the dependencies of the HTTP handlers.
//
// Handler methods are split across files:
//   - handlers_markers.go: marker list, create and delete
//   - handlers_health.go: health, liveness and readiness
//   - handlers_websocket.go: the /ws/{seed} upgrade
type Handler struct {
	service   *markers.Service
	store     store.Store
	hub       *ws.Hub
	config    *config.Config
	startTime time.Time
}

// NewHandler creates the handler. store is only used for health checks;
// every mutation goes through service.
func NewHandler(service *markers.Service, st store.Store, hub *ws.Hub, cfg *config.Config) *Handler {
	return &Handler{
		service:   service,
		store:     st,
		hub:       hub,
		config:    cfg,
		startTime: time.Now(),
	}
}

func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin accepts an origin listed in security.cors_origins;
// "*" accepts any, including a missing Origin header.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	if h.config == nil || h.config.Security.HasWildcardCORS() {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}
	for _, allowed := range h.config.Security.CORSOrigins {
		if allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
