// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

// Package models defines the data structures shared by the store, the live
// sync layer and the HTTP API.
package models

import "strings"

// DefaultMarkerType is applied when a marker is created without a type.
const DefaultMarkerType = "lieu"

// MaxSeedLength bounds the room key accepted from URLs and request bodies.
const MaxSeedLength = 128

// Marker is a single labeled point on a seed's map.
//
// ID and Seed are assigned at creation and never change. Seq is the
// store-assigned creation sequence used for stable listing order; it is
// not part of the wire format.
type Marker struct {
	ID    string `json:"id"`
	Seed  string `json:"seed"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Label string `json:"label"`
	Color string `json:"color"`
	Type  string `json:"type"`
	Notes string `json:"notes"`

	Seq uint64 `json:"-"`
}

// MarkerInput carries the client-supplied marker fields.
//
// Coordinates are pointers so a missing field can be told apart from zero.
// There is no seed field: the seed always comes from the caller
// (the connection's bound seed, or the seed of an HTTP create request).
type MarkerInput struct {
	X     *int   `json:"x" validate:"required"`
	Y     *int   `json:"y" validate:"required"`
	Label string `json:"label" validate:"required,max=200"`
	Color string `json:"color" validate:"required,max=32"`
	Type  string `json:"type,omitempty" validate:"omitempty,max=64"`
	Notes string `json:"notes,omitempty" validate:"max=4000"`
}

// ToMarker builds a Marker bound to seed, applying field defaults.
// The caller must have validated the input.
func (in *MarkerInput) ToMarker(id, seed string) *Marker {
	m := &Marker{
		ID:    id,
		Seed:  seed,
		Label: in.Label,
		Color: in.Color,
		Type:  in.Type,
		Notes: in.Notes,
	}
	if in.X != nil {
		m.X = *in.X
	}
	if in.Y != nil {
		m.Y = *in.Y
	}
	if strings.TrimSpace(m.Type) == "" {
		m.Type = DefaultMarkerType
	}
	return m
}

// CreateMarkerRequest is the body of POST /api/markers.
type CreateMarkerRequest struct {
	Seed string `json:"seed" validate:"required,max=128"`
	MarkerInput
}

// ValidSeed reports whether s can be used as a room key.
func ValidSeed(s string) bool {
	return s != "" && len(s) <= MaxSeedLength
}
