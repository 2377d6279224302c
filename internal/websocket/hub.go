// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package websocket

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/seedmap/internal/config"
	"github.com/tomtom215/seedmap/internal/logging"
	"github.com/tomtom215/seedmap/internal/markers"
	"github.com/tomtom215/seedmap/internal/metrics"
	"github.com/tomtom215/seedmap/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful path (e.g. SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// ErrHubClosed is returned by Attach after the hub has shut down.
var ErrHubClosed = errors.New("websocket hub closed")

// Hub owns the live side of the server: it attaches upgraded connections
// as sessions, and on shutdown closes every session.
type Hub struct {
	cfg         config.WebSocketConfig
	registry    *Registry
	broadcaster *Broadcaster
	service     *markers.Service
	closed      atomic.Bool
}

// NewHub creates a Hub. The broadcaster must be built on the same registry
// and is usually also the service's notifier.
func NewHub(cfg config.WebSocketConfig, registry *Registry, broadcaster *Broadcaster, service *markers.Service) *Hub {
	return &Hub{
		cfg:         cfg,
		registry:    registry,
		broadcaster: broadcaster,
		service:     service,
	}
}

// Registry returns the hub's room registry.
func (h *Hub) Registry() *Registry { return h.registry }

// Broadcaster returns the hub's broadcaster.
func (h *Hub) Broadcaster() *Broadcaster { return h.broadcaster }

// Attach binds an upgraded connection to seed: it joins the room, queues
// the snapshot and starts the session goroutines. On error the connection
// has been closed.
func (h *Hub) Attach(conn *websocket.Conn, seed string) (*Session, error) {
	if !models.ValidSeed(seed) {
		_ = conn.Close()
		return nil, markers.ErrInvalidSeed
	}
	if h.closed.Load() {
		_ = conn.Close()
		return nil, ErrHubClosed
	}

	s := newSession(conn, seed, h.registry, h.service, h.cfg)
	if err := s.join(); err != nil {
		s.Close()
		return nil, fmt.Errorf("join %q: %w", seed, err)
	}

	// A shutdown that raced the join must not leave a live session behind.
	if h.closed.Load() {
		s.Close()
		return nil, ErrHubClosed
	}

	s.start()
	logging.Info().
		Uint64("session_id", s.id).
		Str("seed", seed).
		Int("room_size", len(h.registry.MembersOf(seed))).
		Msg("websocket session connected")
	return s, nil
}

// SessionCount returns the number of joined sessions.
func (h *Hub) SessionCount() int { return h.registry.SessionCount() }

// RoomCount returns the number of rooms with at least one session.
func (h *Hub) RoomCount() int { return h.registry.RoomCount() }

// RunWithContext refreshes the room gauges until ctx is done, then closes
// every session. It is meant to run under a supervisor.
func (h *Hub) RunWithContext(ctx context.Context) error {
	h.closed.Store(false)

	interval := h.cfg.StatsInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.updateGauges()
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case <-ticker.C:
			h.updateGauges()
		}
	}
}

func (h *Hub) updateGauges() {
	metrics.UpdateRoomGauges(h.registry.RoomCount(), h.registry.SessionCount())
}

// logGracefulShutdown closes every session and logs the shutdown. ctx.Err()
// is not logged as an error since cancellation is the expected path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	h.closed.Store(true)
	closed := h.registry.CloseAll()
	h.updateGauges()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("sessions_closed", closed).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}
