// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRouter_StaticFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>seedmap</h1>"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log('map')"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	cfg.Server.StaticDir = dir
	ts := newTestStack(t, cfg, nil)

	tests := []struct {
		path string
		want string
	}{
		{"/", "<h1>seedmap</h1>"},
		{"/public/app.js", "console.log('map')"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.want)
			}
		})
	}
}

func TestRouter_StaticDirMissing(t *testing.T) {
	cfg := testConfig()
	cfg.Server.StaticDir = filepath.Join(t.TempDir(), "absent")
	ts := newTestStack(t, cfg, nil)

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	cfg := testConfig()
	cfg.Security.CORSOrigins = []string{"https://map.example"}
	ts := newTestStack(t, cfg, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/markers", nil)
	req.Header.Set("Origin", "https://map.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://map.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestSanitizeLogValue(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"forest", "forest"},
		{"a\nb", `a\x0ab`},
		{"tab\there", `tab\x09here`},
	}
	for _, tt := range tests {
		if got := sanitizeLogValue(tt.in); got != tt.want {
			t.Errorf("sanitizeLogValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
