// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package websocket

import (
	"github.com/goccy/go-json"

	"github.com/tomtom215/seedmap/internal/logging"
	"github.com/tomtom215/seedmap/internal/metrics"
	"github.com/tomtom215/seedmap/internal/models"
)

// BroadcastResult reports the outcome of one broadcast.
type BroadcastResult struct {
	Delivered int
	Dropped   []*Session
}

// Broadcaster fans events out to the sessions of a room.
type Broadcaster struct {
	registry *Registry
}

// NewBroadcaster creates a Broadcaster over registry.
func NewBroadcaster(registry *Registry) *Broadcaster {
	return &Broadcaster{registry: registry}
}

// Broadcast sends event to every session of seed.
func (b *Broadcaster) Broadcast(seed string, event models.Event) BroadcastResult {
	return b.BroadcastExcept(seed, event, 0)
}

// BroadcastExcept sends event to every session of seed except the one with
// id skip (0 skips nobody).
//
// The event is encoded once. Each hand-off is a non-blocking enqueue; a
// session that is closed or whose queue is full is dropped and pruned after
// the loop, so one stuck peer never delays the others.
func (b *Broadcaster) BroadcastExcept(seed string, event models.Event, skip uint64) BroadcastResult {
	var result BroadcastResult

	members := b.registry.MembersOf(seed)
	if len(members) == 0 {
		return result
	}

	frame, err := json.Marshal(event)
	if err != nil {
		logging.Error().Err(err).Str("op", event.EventOp()).Msg("failed to encode broadcast event")
		return result
	}

	for _, s := range members {
		if skip != 0 && s.id == skip {
			continue
		}
		if s.Enqueue(frame) {
			result.Delivered++
			continue
		}
		result.Dropped = append(result.Dropped, s)
	}

	for _, s := range result.Dropped {
		b.registry.Leave(seed, s)
		s.Close()
	}

	metrics.RecordBroadcast(result.Delivered, len(result.Dropped))
	if len(result.Dropped) > 0 {
		logging.Warn().
			Str("seed", seed).
			Str("op", event.EventOp()).
			Int("delivered", result.Delivered).
			Int("dropped", len(result.Dropped)).
			Msg("pruned unresponsive sessions during broadcast")
	}
	return result
}

// Notify implements markers.Notifier.
func (b *Broadcaster) Notify(seed string, event models.Event, skip uint64) {
	b.BroadcastExcept(seed, event, skip)
}
