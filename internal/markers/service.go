// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

// Package markers implements marker mutations shared by the live sync
// endpoint and the HTTP API: validate, persist, then notify the room.
package markers

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/seedmap/internal/logging"
	"github.com/tomtom215/seedmap/internal/metrics"
	"github.com/tomtom215/seedmap/internal/models"
	"github.com/tomtom215/seedmap/internal/store"
	"github.com/tomtom215/seedmap/internal/validation"
)

var (
	// ErrInvalidMarker wraps a *validation.RequestValidationError.
	ErrInvalidMarker = errors.New("invalid marker")

	// ErrInvalidSeed is returned for an empty or oversized seed.
	ErrInvalidSeed = errors.New("invalid seed")
)

// Notifier fans an event out to the sessions of a seed. skip is the id of a
// session that must not receive it; 0 skips nobody.
type Notifier interface {
	Notify(seed string, event models.Event, skip uint64)
}

// Origin identifies who issued a mutation.
type Origin struct {
	Source    string // "ws" or "http"
	SessionID uint64 // live session id, 0 for HTTP
}

// HTTPOrigin is the origin of HTTP API mutations.
var HTTPOrigin = Origin{Source: "http"}

// SessionOrigin is the origin of a mutation sent over a live session.
func SessionOrigin(id uint64) Origin {
	return Origin{Source: "ws", SessionID: id}
}

// Service applies marker mutations.
type Service struct {
	store    store.Store
	notifier Notifier
}

// NewService creates a Service. notifier may be nil, in which case
// mutations are persisted without fan-out.
func NewService(s store.Store, notifier Notifier) *Service {
	return &Service{store: s, notifier: notifier}
}

// List returns the markers of seed in creation order.
func (s *Service) List(ctx context.Context, seed string) ([]models.Marker, error) {
	if !models.ValidSeed(seed) {
		return nil, ErrInvalidSeed
	}
	return s.store.List(ctx, seed)
}

// Create validates in, persists it bound to seed, and notifies the room.
// The origin session, if any, is skipped: it gets its reply directly.
func (s *Service) Create(ctx context.Context, seed string, in *models.MarkerInput, origin Origin) (*models.Marker, error) {
	if !models.ValidSeed(seed) {
		return nil, ErrInvalidSeed
	}
	if in == nil {
		in = &models.MarkerInput{}
	}
	if verr := validation.ValidateStruct(in); verr != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMarker, verr)
	}

	m, err := s.store.Create(ctx, seed, in)
	if err != nil {
		return nil, fmt.Errorf("create marker: %w", err)
	}
	metrics.MarkersCreated.WithLabelValues(origin.Source).Inc()

	logging.Ctx(ctx).Debug().
		Str("seed", seed).
		Str("marker_id", m.ID).
		Str("source", origin.Source).
		Msg("Marker created")

	s.notify(seed, models.NewAdded(m), origin)
	return m, nil
}

// Remove deletes marker id if it belongs to seed and notifies the room.
// A missing marker and a seed mismatch both return store.ErrNotFound.
func (s *Service) Remove(ctx context.Context, seed, id string, origin Origin) error {
	if !models.ValidSeed(seed) {
		return ErrInvalidSeed
	}

	m, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if m.Seed != seed {
		return store.ErrNotFound
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	metrics.MarkersRemoved.WithLabelValues(origin.Source).Inc()

	logging.Ctx(ctx).Debug().
		Str("seed", seed).
		Str("marker_id", id).
		Str("source", origin.Source).
		Msg("Marker removed")

	s.notify(seed, models.NewRemoved(id), origin)
	return nil
}

func (s *Service) notify(seed string, event models.Event, origin Origin) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(seed, event, origin.SessionID)
}
