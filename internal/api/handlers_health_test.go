// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package api

import (
	"net/http"
	"testing"

	"github.com/tomtom215/seedmap/internal/store"
)

func TestHealth(t *testing.T) {
	tests := []struct {
		name        string
		databaseURL string
		closeStore  bool
		wantDB      bool
		wantStore   string
	}{
		{"memory store up", "", false, false, "up"},
		{"database url reported", "postgres://db/markers", false, true, "up"},
		{"closed store down", "", true, false, "down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Store.DatabaseURL = tt.databaseURL
			st := store.NewMemoryStore()
			ts := newTestStack(t, cfg, st)
			if tt.closeStore {
				_ = st.Close()
			}

			rec, resp := ts.do(t, http.MethodGet, "/api/health", "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			data := dataMap(t, resp)
			if data["ok"] != true {
				t.Errorf("ok = %v, want true", data["ok"])
			}
			if data["db"] != tt.wantDB {
				t.Errorf("db = %v, want %v", data["db"], tt.wantDB)
			}
			if data["driver"] != "memory" {
				t.Errorf("driver = %v, want memory", data["driver"])
			}
			if data["store"] != tt.wantStore {
				t.Errorf("store = %v, want %s", data["store"], tt.wantStore)
			}
		})
	}
}

func TestHealthReady(t *testing.T) {
	st := store.NewMemoryStore()
	ts := newTestStack(t, nil, st)

	rec, resp := ts.do(t, http.MethodGet, "/api/health/ready", "")
	if rec.Code != http.StatusOK || dataMap(t, resp)["ready"] != true {
		t.Fatalf("ready = %d %s", rec.Code, rec.Body.String())
	}

	_ = st.Close()
	rec, resp = ts.do(t, http.MethodGet, "/api/health/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status after close = %d, want 503", rec.Code)
	}
	if dataMap(t, resp)["ready"] != false {
		t.Errorf("data = %v, want ready:false", resp.Data)
	}
}

func TestHealthLive(t *testing.T) {
	ts := newTestStack(t, nil, unavailableStore{})

	rec, resp := ts.do(t, http.MethodGet, "/api/health/live", "")
	if rec.Code != http.StatusOK || dataMap(t, resp)["alive"] != true {
		t.Errorf("live = %d %s", rec.Code, rec.Body.String())
	}
}
