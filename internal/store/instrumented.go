// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package store

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/seedmap/internal/metrics"
	"github.com/tomtom215/seedmap/internal/models"
)

// InstrumentedStore records operation latency and errors per backend.
type InstrumentedStore struct {
	inner   Store
	backend string
}

// Instrument wraps inner with Prometheus timing.
func Instrument(inner Store) *InstrumentedStore {
	return &InstrumentedStore{inner: inner, backend: inner.Name()}
}

func (s *InstrumentedStore) Unwrap() Store { return s.inner }

func (s *InstrumentedStore) Name() string { return s.inner.Name() }

// observe records one operation. A missing marker is an answer, not an error.
func (s *InstrumentedStore) observe(op string, start time.Time, err error) {
	if errors.Is(err, ErrNotFound) {
		err = nil
	}
	metrics.RecordStoreOperation(s.backend, op, time.Since(start), err)
}

func (s *InstrumentedStore) List(ctx context.Context, seed string) ([]models.Marker, error) {
	start := time.Now()
	markers, err := s.inner.List(ctx, seed)
	s.observe("list", start, err)
	return markers, err
}

func (s *InstrumentedStore) Create(ctx context.Context, seed string, in *models.MarkerInput) (*models.Marker, error) {
	start := time.Now()
	m, err := s.inner.Create(ctx, seed, in)
	s.observe("create", start, err)
	return m, err
}

func (s *InstrumentedStore) Get(ctx context.Context, id string) (*models.Marker, error) {
	start := time.Now()
	m, err := s.inner.Get(ctx, id)
	s.observe("get", start, err)
	return m, err
}

func (s *InstrumentedStore) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := s.inner.Delete(ctx, id)
	s.observe("delete", start, err)
	return err
}

func (s *InstrumentedStore) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.inner.Ping(ctx)
	s.observe("ping", start, err)
	return err
}

func (s *InstrumentedStore) Close() error { return s.inner.Close() }
