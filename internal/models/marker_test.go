// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package models

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func intPtr(v int) *int { return &v }

func TestMarkerInput_ToMarker(t *testing.T) {
	tests := []struct {
		name      string
		input     MarkerInput
		wantType  string
		wantNotes string
	}{
		{
			name:     "type defaults to lieu",
			input:    MarkerInput{X: intPtr(1), Y: intPtr(2), Label: "Cave", Color: "#000"},
			wantType: DefaultMarkerType,
		},
		{
			name:     "blank type defaults to lieu",
			input:    MarkerInput{X: intPtr(1), Y: intPtr(2), Label: "Cave", Color: "#000", Type: "  "},
			wantType: DefaultMarkerType,
		},
		{
			name:      "explicit type and notes kept",
			input:     MarkerInput{X: intPtr(0), Y: intPtr(-4), Label: "Inn", Color: "red", Type: "shop", Notes: "cheap ale"},
			wantType:  "shop",
			wantNotes: "cheap ale",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.input.ToMarker("id-1", "forest")
			if m.ID != "id-1" || m.Seed != "forest" {
				t.Errorf("identity = (%q, %q), want (id-1, forest)", m.ID, m.Seed)
			}
			if m.X != *tt.input.X || m.Y != *tt.input.Y {
				t.Errorf("coords = (%d, %d), want (%d, %d)", m.X, m.Y, *tt.input.X, *tt.input.Y)
			}
			if m.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", m.Type, tt.wantType)
			}
			if m.Notes != tt.wantNotes {
				t.Errorf("Notes = %q, want %q", m.Notes, tt.wantNotes)
			}
		})
	}
}

func TestValidSeed(t *testing.T) {
	tests := []struct {
		seed string
		want bool
	}{
		{"forest", true},
		{"", false},
		{strings.Repeat("s", MaxSeedLength), true},
		{strings.Repeat("s", MaxSeedLength+1), false},
	}
	for _, tt := range tests {
		if got := ValidSeed(tt.seed); got != tt.want {
			t.Errorf("ValidSeed(len=%d) = %v, want %v", len(tt.seed), got, tt.want)
		}
	}
}

func TestNewSnapshot_EmptyEncodesAsArray(t *testing.T) {
	data, err := json.Marshal(NewSnapshot(nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got, want := string(data), `{"op":"snapshot","markers":[]}`; got != want {
		t.Errorf("snapshot = %s, want %s", got, want)
	}
}

func TestClientMessage_IgnoresEmbeddedSeed(t *testing.T) {
	raw := `{"op":"add","marker":{"x":1,"y":2,"label":"Cave","color":"#000","seed":"desert"}}`

	var msg ClientMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Marker == nil {
		t.Fatal("marker payload not decoded")
	}

	m := msg.Marker.ToMarker("id", "forest")
	if m.Seed != "forest" {
		t.Errorf("Seed = %q, want bound seed forest", m.Seed)
	}
}

func TestClientMessage_WrongTypeFails(t *testing.T) {
	raw := `{"op":"add","marker":{"x":"one","y":2,"label":"Cave","color":"#000"}}`

	var msg ClientMessage
	if err := json.Unmarshal([]byte(raw), &msg); err == nil {
		t.Error("expected decode error for string coordinate")
	}
}
