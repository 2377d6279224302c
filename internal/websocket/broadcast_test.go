// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package websocket

import (
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/seedmap/internal/markers"
	"github.com/tomtom215/seedmap/internal/models"
	"github.com/tomtom215/seedmap/internal/store"
)

// drain returns the frames queued for s, skipping the snapshot.
func drain(s *Session) []models.RemovedEvent {
	var events []models.RemovedEvent
	for {
		select {
		case frame := <-s.send:
			var ev models.RemovedEvent
			if err := json.Unmarshal(frame, &ev); err == nil && ev.Op == models.OpRemoved {
				events = append(events, ev)
			}
		default:
			return events
		}
	}
}

func TestBroadcast_DeliversToRoomOnly(t *testing.T) {
	reg := NewRegistry()
	bc := NewBroadcaster(reg)

	a := newDetachedSession(t, reg, "forest", 8)
	b := newDetachedSession(t, reg, "forest", 8)
	d := newDetachedSession(t, reg, "desert", 8)

	result := bc.Broadcast("forest", models.NewRemoved("m1"))
	if result.Delivered != 2 || len(result.Dropped) != 0 {
		t.Fatalf("result = %+v, want 2 delivered", result)
	}

	for _, s := range []*Session{a, b} {
		if got := drain(s); len(got) != 1 || got[0].ID != "m1" {
			t.Errorf("session %d got %+v", s.id, got)
		}
	}
	if got := drain(d); len(got) != 0 {
		t.Errorf("desert session received %+v", got)
	}
}

func TestBroadcast_ExceptSkipsOrigin(t *testing.T) {
	reg := NewRegistry()
	bc := NewBroadcaster(reg)

	a := newDetachedSession(t, reg, "forest", 8)
	b := newDetachedSession(t, reg, "forest", 8)

	result := bc.BroadcastExcept("forest", models.NewRemoved("m1"), a.id)
	if result.Delivered != 1 {
		t.Fatalf("Delivered = %d, want 1", result.Delivered)
	}
	if got := drain(a); len(got) != 0 {
		t.Errorf("origin received %+v", got)
	}
	if got := drain(b); len(got) != 1 {
		t.Errorf("peer received %d events, want 1", len(got))
	}
}

func TestBroadcast_PrunesFullAndClosedSessions(t *testing.T) {
	reg := NewRegistry()
	bc := NewBroadcaster(reg)

	healthy1 := newDetachedSession(t, reg, "forest", 8)
	stuck := newDetachedSession(t, reg, "forest", 1) // snapshot fills the queue
	healthy2 := newDetachedSession(t, reg, "forest", 8)
	gone := newDetachedSession(t, reg, "forest", 8)

	// Closed but still registered, as if it died between MembersOf and send.
	gone.Close()
	reg.Join("forest", gone)

	result := bc.Broadcast("forest", models.NewRemoved("m1"))
	if result.Delivered != 2 {
		t.Errorf("Delivered = %d, want 2", result.Delivered)
	}
	if len(result.Dropped) != 2 {
		t.Fatalf("Dropped = %d, want 2", len(result.Dropped))
	}

	members := reg.MembersOf("forest")
	if len(members) != 2 || members[0] != healthy1 || members[1] != healthy2 {
		t.Errorf("members after prune = %d, want the two healthy sessions", len(members))
	}
	if stuck.State() != StateClosed {
		t.Errorf("stuck session state = %s, want closed", stuck.State())
	}

	// A second broadcast only sees the survivors.
	result = bc.Broadcast("forest", models.NewRemoved("m2"))
	if result.Delivered != 2 || len(result.Dropped) != 0 {
		t.Errorf("second result = %+v", result)
	}
}

func TestBroadcast_EmptyRoomIsNoop(t *testing.T) {
	bc := NewBroadcaster(NewRegistry())
	result := bc.Broadcast("nowhere", models.NewRemoved("m1"))
	if result.Delivered != 0 || len(result.Dropped) != 0 {
		t.Errorf("result = %+v, want zero", result)
	}
}

func TestSession_PendingFramesFollowSnapshot(t *testing.T) {
	reg := NewRegistry()
	svc := markers.NewService(store.NewMemoryStore(), nil)
	s := newSession(nil, "forest", reg, svc, testConfig())

	// Before join the frame is held back.
	if !s.Enqueue([]byte(`{"op":"removed","id":"early"}`)) {
		t.Fatal("Enqueue() before join = false")
	}
	if len(s.send) != 0 {
		t.Fatal("frame reached the send queue before the snapshot")
	}

	if err := s.join(); err != nil {
		t.Fatalf("join() error = %v", err)
	}

	first := <-s.send
	var snap models.SnapshotEvent
	if err := json.Unmarshal(first, &snap); err != nil || snap.Op != models.OpSnapshot {
		t.Fatalf("first frame = %s, want snapshot", first)
	}
	if got := drain(s); len(got) != 1 || got[0].ID != "early" {
		t.Errorf("frames after snapshot = %+v", got)
	}
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	s := newDetachedSession(t, reg, "forest", 4)

	s.Close()
	s.Close()

	if s.State() != StateClosed {
		t.Errorf("State() = %s, want closed", s.State())
	}
	if s.Enqueue([]byte("x")) {
		t.Error("Enqueue() after Close = true")
	}
	if reg.SessionCount() != 0 {
		t.Errorf("SessionCount() = %d, want 0", reg.SessionCount())
	}
	select {
	case <-s.Done():
	default:
		t.Error("Done() not closed")
	}
}
