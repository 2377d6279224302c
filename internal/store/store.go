// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

// Package store persists markers.
//
// Backends:
//   - MemoryStore: process-local, for tests and throwaway sessions
//   - GormStore: SQLite (default ./app.db) or PostgreSQL (DATABASE_URL)
//   - BadgerStore: embedded key-value store
//
// Every backend lists a seed's markers in creation order. New wraps the
// selected backend with a circuit breaker and Prometheus timing.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/tomtom215/seedmap/internal/models"
)

var (
	// ErrNotFound is returned when no marker has the requested id.
	ErrNotFound = errors.New("marker not found")

	// ErrUnavailable is returned while the circuit breaker rejects calls.
	ErrUnavailable = errors.New("marker store unavailable")

	errStoreClosed = errors.New("marker store closed")
)

// Store is the marker persistence interface consumed by the sync core and
// the HTTP API.
type Store interface {
	// List returns the markers of seed in creation order. An unknown seed
	// yields an empty slice.
	List(ctx context.Context, seed string) ([]models.Marker, error)

	// Create persists a new marker bound to seed. The input must already be
	// validated. The returned marker carries the assigned id.
	Create(ctx context.Context, seed string, in *models.MarkerInput) (*models.Marker, error)

	// Get returns the marker with id, or ErrNotFound.
	Get(ctx context.Context, id string) (*models.Marker, error)

	// Delete removes the marker with id, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	Ping(ctx context.Context) error
	Close() error

	// Name identifies the backend in logs and metrics.
	Name() string
}

// Maintainer is implemented by backends that need periodic housekeeping.
type Maintainer interface {
	Maintain(ctx context.Context) error
}

// Wrapper is implemented by decorators around a Store.
type Wrapper interface {
	Unwrap() Store
}

// AsMaintainer walks the wrapper chain of s looking for a Maintainer.
func AsMaintainer(s Store) (Maintainer, bool) {
	for s != nil {
		if m, ok := s.(Maintainer); ok {
			return m, true
		}
		w, ok := s.(Wrapper)
		if !ok {
			return nil, false
		}
		s = w.Unwrap()
	}
	return nil, false
}

func newMarkerID() string {
	return uuid.NewString()
}
