// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/seedmap/internal/logging"
	"github.com/tomtom215/seedmap/internal/metrics"
	"github.com/tomtom215/seedmap/internal/models"
)

// WebSocket handles GET /ws/{seed}. The seed is checked before the upgrade
// so a bad one gets a plain 400 instead of a dropped socket.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		logging.Warn().Err(ErrHubUnavailable).Msg("WebSocket connection rejected")
		NewResponseWriter(w, r).ServiceUnavailable("WebSocket service unavailable")
		return
	}

	seed := chi.URLParam(r, "seed")
	if !models.ValidSeed(seed) {
		NewResponseWriter(w, r).BadRequest("seed is invalid")
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		metrics.WSErrors.WithLabelValues("upgrade").Inc()
		logging.Debug().Err(err).Str("seed", sanitizeLogValue(seed)).Msg("WebSocket upgrade failed")
		return
	}

	if _, err := h.hub.Attach(conn, seed); err != nil {
		metrics.WSErrors.WithLabelValues("attach").Inc()
		logging.Warn().Err(err).Str("seed", sanitizeLogValue(seed)).Msg("WebSocket session not attached")
	}
}
