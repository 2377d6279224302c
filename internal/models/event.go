// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package models

// Live protocol operations.
const (
	// Server to client
	OpSnapshot = "snapshot"
	OpAdded    = "added"
	OpRemoved  = "removed"

	// Client to server
	OpAdd    = "add"
	OpRemove = "remove"
)

// Event is a server-to-client message. Each concrete event serializes as a
// flat object tagged by its "op" field.
type Event interface {
	EventOp() string
}

// SnapshotEvent carries the full marker list of a seed. It is sent once,
// to a newly joined session only.
type SnapshotEvent struct {
	Op      string   `json:"op"`
	Markers []Marker `json:"markers"`
}

// EventOp implements Event.
func (e *SnapshotEvent) EventOp() string { return e.Op }

// AddedEvent announces a newly created marker.
type AddedEvent struct {
	Op     string `json:"op"`
	Marker Marker `json:"marker"`
}

// EventOp implements Event.
func (e *AddedEvent) EventOp() string { return e.Op }

// RemovedEvent announces a deleted marker.
type RemovedEvent struct {
	Op string `json:"op"`
	ID string `json:"id"`
}

// EventOp implements Event.
func (e *RemovedEvent) EventOp() string { return e.Op }

// NewSnapshot returns a snapshot event. A nil slice is encoded as [].
func NewSnapshot(markers []Marker) *SnapshotEvent {
	if markers == nil {
		markers = []Marker{}
	}
	return &SnapshotEvent{Op: OpSnapshot, Markers: markers}
}

// NewAdded returns an added event for m.
func NewAdded(m *Marker) *AddedEvent {
	return &AddedEvent{Op: OpAdded, Marker: *m}
}

// NewRemoved returns a removed event for id.
func NewRemoved(id string) *RemovedEvent {
	return &RemovedEvent{Op: OpRemoved, ID: id}
}

// ClientMessage is an inbound live message. Only the fields relevant to Op
// are populated; anything else is ignored.
type ClientMessage struct {
	Op     string       `json:"op"`
	Marker *MarkerInput `json:"marker,omitempty"`
	ID     string       `json:"id,omitempty"`
}
