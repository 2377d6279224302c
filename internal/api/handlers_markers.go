// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/seedmap/internal/logging"
	"github.com/tomtom215/seedmap/internal/markers"
	"github.com/tomtom215/seedmap/internal/models"
	"github.com/tomtom215/seedmap/internal/store"
	"github.com/tomtom215/seedmap/internal/validation"
)

// maxMarkerBodyBytes bounds POST /api/markers bodies.
const maxMarkerBodyBytes = 64 * 1024

// ListMarkers handles GET /api/markers?seed=S.
func (h *Handler) ListMarkers(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	seed, ok := requireSeed(rw, r.URL.Query().Get("seed"))
	if !ok {
		return
	}

	list, err := h.service.List(r.Context(), seed)
	if err != nil {
		h.writeStoreError(rw, err)
		return
	}
	if list == nil {
		list = []models.Marker{}
	}
	rw.Success(map[string]interface{}{"markers": list})
}

// CreateMarker handles POST /api/markers. The new marker is broadcast to
// every live session on its seed.
func (h *Handler) CreateMarker(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.CreateMarkerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMarkerBodyBytes)).Decode(&req); err != nil {
		rw.BadRequest("Invalid JSON body")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr)
		return
	}

	m, err := h.service.Create(r.Context(), req.Seed, &req.MarkerInput, markers.HTTPOrigin)
	if err != nil {
		var verr *validation.RequestValidationError
		if errors.As(err, &verr) {
			rw.ValidationError(verr)
			return
		}
		h.writeStoreError(rw, err)
		return
	}

	rw.Created(map[string]interface{}{"saved": true, "id": m.ID})
}

// DeleteMarker handles DELETE /api/markers/{id}?seed=S. A marker that does
// not exist or belongs to another seed is a 404 with {ok:false}.
func (h *Handler) DeleteMarker(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	seed, ok := requireSeed(rw, r.URL.Query().Get("seed"))
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	err := h.service.Remove(r.Context(), seed, id, markers.HTTPOrigin)
	switch {
	case err == nil:
		rw.Success(map[string]interface{}{"ok": true})
	case errors.Is(err, store.ErrNotFound):
		rw.ErrorWithData(http.StatusNotFound, ErrCodeNotFound, "Marker not found", nil,
			map[string]interface{}{"ok": false})
	default:
		h.writeStoreError(rw, err)
	}
}

// requireSeed writes a 400 and returns false when seed is unusable.
func requireSeed(rw *ResponseWriter, seed string) (string, bool) {
	if seed == "" {
		rw.BadRequest("seed is required")
		return "", false
	}
	if !models.ValidSeed(seed) {
		rw.BadRequest("seed is too long")
		return "", false
	}
	return seed, true
}

func (h *Handler) writeStoreError(rw *ResponseWriter, err error) {
	switch {
	case errors.Is(err, markers.ErrInvalidSeed):
		rw.BadRequest("seed is invalid")
	case errors.Is(err, store.ErrUnavailable):
		logging.Ctx(rw.r.Context()).Warn().Err(err).Msg("Store unavailable")
		rw.ServiceUnavailable("Marker store temporarily unavailable")
	default:
		rw.StoreError(err)
	}
}
