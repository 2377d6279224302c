// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package markers

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/tomtom215/seedmap/internal/logging"
	"github.com/tomtom215/seedmap/internal/models"
	"github.com/tomtom215/seedmap/internal/store"
	"github.com/tomtom215/seedmap/internal/validation"
)

func init() {
	logging.SetLevelString("error")
}

type notification struct {
	seed  string
	event models.Event
	skip  uint64
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (r *recordingNotifier) Notify(seed string, event models.Event, skip uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, notification{seed: seed, event: event, skip: skip})
}

func (r *recordingNotifier) all() []notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notification(nil), r.sent...)
}

func intPtr(v int) *int { return &v }

func validInput() *models.MarkerInput {
	return &models.MarkerInput{X: intPtr(120), Y: intPtr(45), Label: "Camp", Color: "#00ff00"}
}

func newTestService() (*Service, *recordingNotifier) {
	n := &recordingNotifier{}
	return NewService(store.NewMemoryStore(), n), n
}

func TestService_CreateNotifiesSkippingOrigin(t *testing.T) {
	svc, n := newTestService()
	ctx := context.Background()

	m, err := svc.Create(ctx, "forest", validInput(), SessionOrigin(7))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	sent := n.all()
	if len(sent) != 1 {
		t.Fatalf("notifications = %d, want 1", len(sent))
	}
	if sent[0].seed != "forest" || sent[0].skip != 7 {
		t.Errorf("notification = %+v", sent[0])
	}
	added, ok := sent[0].event.(*models.AddedEvent)
	if !ok {
		t.Fatalf("event type = %T, want *models.AddedEvent", sent[0].event)
	}
	if added.Marker.ID != m.ID || added.Marker.Type != models.DefaultMarkerType {
		t.Errorf("added marker = %+v", added.Marker)
	}
}

func TestService_CreateInvalid(t *testing.T) {
	svc, n := newTestService()
	ctx := context.Background()

	in := validInput()
	in.Label = ""
	_, err := svc.Create(ctx, "forest", in, HTTPOrigin)
	if !errors.Is(err, ErrInvalidMarker) {
		t.Fatalf("Create() error = %v, want ErrInvalidMarker", err)
	}
	var verr *validation.RequestValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Create() error does not carry field errors: %v", err)
	}
	if len(verr.Errors()) != 1 || verr.Errors()[0].Field != "label" {
		t.Errorf("field errors = %+v", verr.Errors())
	}

	if _, err := svc.Create(ctx, "forest", nil, HTTPOrigin); !errors.Is(err, ErrInvalidMarker) {
		t.Errorf("Create(nil) error = %v, want ErrInvalidMarker", err)
	}
	if _, err := svc.Create(ctx, "", validInput(), HTTPOrigin); !errors.Is(err, ErrInvalidSeed) {
		t.Errorf("Create(empty seed) error = %v, want ErrInvalidSeed", err)
	}
	if len(n.all()) != 0 {
		t.Errorf("invalid creates must not notify, got %d", len(n.all()))
	}
}

func TestService_RemoveChecksSeed(t *testing.T) {
	svc, n := newTestService()
	ctx := context.Background()

	m, err := svc.Create(ctx, "forest", validInput(), HTTPOrigin)
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Remove(ctx, "desert", m.ID, HTTPOrigin); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Remove(wrong seed) error = %v, want ErrNotFound", err)
	}
	if list, err := svc.List(ctx, "forest"); err != nil || len(list) != 1 {
		t.Fatalf("marker removed through the wrong seed")
	}

	if err := svc.Remove(ctx, "forest", m.ID, HTTPOrigin); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := svc.Remove(ctx, "forest", m.ID, HTTPOrigin); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second Remove() error = %v, want ErrNotFound", err)
	}

	sent := n.all()
	if len(sent) != 2 {
		t.Fatalf("notifications = %d, want 2 (added, removed)", len(sent))
	}
	removed, ok := sent[1].event.(*models.RemovedEvent)
	if !ok || removed.ID != m.ID {
		t.Errorf("second notification = %+v", sent[1])
	}
	if sent[1].skip != 0 {
		t.Errorf("HTTP origin skip = %d, want 0", sent[1].skip)
	}
}

func TestService_NilNotifier(t *testing.T) {
	svc := NewService(store.NewMemoryStore(), nil)
	if _, err := svc.Create(context.Background(), "forest", validInput(), HTTPOrigin); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

func TestService_ListUnknownSeed(t *testing.T) {
	svc, _ := newTestService()
	list, err := svc.List(context.Background(), "nowhere")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("List() = %v, want empty", list)
	}
}
