// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package store

import (
	"context"
	"sync"

	"github.com/tomtom215/seedmap/internal/models"
)

// MemoryStore keeps markers in process memory. Contents are lost on exit.
type MemoryStore struct {
	mu     sync.RWMutex
	seq    uint64
	byID   map[string]*models.Marker
	bySeed map[string][]*models.Marker // creation order
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]*models.Marker),
		bySeed: make(map[string][]*models.Marker),
	}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) List(ctx context.Context, seed string) ([]models.Marker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errStoreClosed
	}

	markers := s.bySeed[seed]
	out := make([]models.Marker, 0, len(markers))
	for _, m := range markers {
		out = append(out, *m)
	}
	return out, nil
}

func (s *MemoryStore) Create(ctx context.Context, seed string, in *models.MarkerInput) (*models.Marker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errStoreClosed
	}

	s.seq++
	m := in.ToMarker(newMarkerID(), seed)
	m.Seq = s.seq

	s.byID[m.ID] = m
	s.bySeed[seed] = append(s.bySeed[seed], m)

	out := *m
	return &out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Marker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errStoreClosed
	}

	m, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *m
	return &out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errStoreClosed
	}

	m, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byID, id)

	markers := s.bySeed[m.Seed]
	for i, candidate := range markers {
		if candidate.ID == id {
			markers = append(markers[:i], markers[i+1:]...)
			break
		}
	}
	if len(markers) == 0 {
		delete(s.bySeed, m.Seed)
	} else {
		s.bySeed[m.Seed] = markers
	}
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errStoreClosed
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
