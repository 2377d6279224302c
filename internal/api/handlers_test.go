// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/seedmap/internal/config"
	"github.com/tomtom215/seedmap/internal/logging"
	"github.com/tomtom215/seedmap/internal/markers"
	"github.com/tomtom215/seedmap/internal/models"
	"github.com/tomtom215/seedmap/internal/store"
	ws "github.com/tomtom215/seedmap/internal/websocket"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "error", Format: "console", Output: io.Discard})
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8000, Host: "127.0.0.1", Timeout: 5 * time.Second},
		Store:  config.StoreConfig{Driver: config.DriverMemory},
		WebSocket: config.WebSocketConfig{
			SendBuffer:        16,
			MaxMessageSize:    64 * 1024,
			WriteWait:         time.Second,
			PongWait:          5 * time.Second,
			MessagesPerSecond: 100,
			MessageBurst:      100,
			StatsInterval:     time.Second,
		},
		Security: config.SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   1000,
			RateLimitWindow: time.Minute,
		},
	}
}

// testStack is the full HTTP stack over a memory store.
type testStack struct {
	cfg     *config.Config
	store   store.Store
	service *markers.Service
	hub     *ws.Hub
	handler http.Handler
}

func newTestStack(t *testing.T, cfg *config.Config, st store.Store) *testStack {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	if st == nil {
		st = store.NewMemoryStore()
	}

	reg := ws.NewRegistry()
	bc := ws.NewBroadcaster(reg)
	svc := markers.NewService(st, bc)
	hub := ws.NewHub(cfg.WebSocket, reg, bc, svc)

	h := NewHandler(svc, st, hub, cfg)
	router := NewRouter(h, NewChiMiddleware(ChiMiddlewareConfigFrom(&cfg.Security)), cfg.Server.StaticDir)

	t.Cleanup(func() { reg.CloseAll() })
	return &testStack{cfg: cfg, store: st, service: svc, hub: hub, handler: router.SetupChi()}
}

func (ts *testStack) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var resp APIResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode %s: %v", rec.Body.String(), err)
		}
	}
	return rec, resp
}

// dataMap returns the envelope data as a map.
func dataMap(t *testing.T, resp APIResponse) map[string]interface{} {
	t.Helper()
	m, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data = %#v, want object", resp.Data)
	}
	return m
}

func (ts *testStack) create(t *testing.T, seed, label string) string {
	t.Helper()
	body := `{"seed":"` + seed + `","x":10,"y":20,"label":"` + label + `","color":"#ff0000"}`
	rec, resp := ts.do(t, http.MethodPost, "/api/markers", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	id, _ := dataMap(t, resp)["id"].(string)
	if id == "" {
		t.Fatalf("create returned no id: %s", rec.Body.String())
	}
	return id
}

func (ts *testStack) listLabels(t *testing.T, seed string) []string {
	t.Helper()
	rec, resp := ts.do(t, http.MethodGet, "/api/markers?seed="+seed, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	raw, ok := dataMap(t, resp)["markers"].([]interface{})
	if !ok {
		t.Fatalf("markers = %#v, want array", dataMap(t, resp)["markers"])
	}
	labels := make([]string, 0, len(raw))
	for _, item := range raw {
		labels = append(labels, item.(map[string]interface{})["label"].(string))
	}
	return labels
}

func TestMarkers_CreateListDelete(t *testing.T) {
	ts := newTestStack(t, nil, nil)

	if got := ts.listLabels(t, "forest"); len(got) != 0 {
		t.Fatalf("initial list = %v, want empty", got)
	}

	first := ts.create(t, "forest", "Camp")
	ts.create(t, "forest", "Lake")
	ts.create(t, "forest", "Cave")
	ts.create(t, "desert", "Oasis")

	if got := strings.Join(ts.listLabels(t, "forest"), ","); got != "Camp,Lake,Cave" {
		t.Errorf("forest = %s, want Camp,Lake,Cave", got)
	}

	rec, resp := ts.do(t, http.MethodDelete, "/api/markers/"+first+"?seed=forest", "")
	if rec.Code != http.StatusOK || dataMap(t, resp)["ok"] != true {
		t.Fatalf("delete = %d %s", rec.Code, rec.Body.String())
	}
	if got := strings.Join(ts.listLabels(t, "forest"), ","); got != "Lake,Cave" {
		t.Errorf("forest after delete = %s, want Lake,Cave", got)
	}
	if got := strings.Join(ts.listLabels(t, "desert"), ","); got != "Oasis" {
		t.Errorf("desert = %s, want Oasis", got)
	}
}

func TestMarkers_CreateDefaults(t *testing.T) {
	ts := newTestStack(t, nil, nil)
	id := ts.create(t, "forest", "Camp")

	m, err := ts.store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if m.Type != models.DefaultMarkerType || m.Notes != "" || m.Seed != "forest" {
		t.Errorf("stored marker = %+v", m)
	}
}

func TestMarkers_BadRequests(t *testing.T) {
	ts := newTestStack(t, nil, nil)

	tests := []struct {
		name     string
		method   string
		target   string
		body     string
		wantCode string
		wantKeys []string
	}{
		{"list without seed", http.MethodGet, "/api/markers", "", ErrCodeBadRequest, nil},
		{"delete without seed", http.MethodDelete, "/api/markers/abc", "", ErrCodeBadRequest, nil},
		{"create invalid json", http.MethodPost, "/api/markers", `{"seed":`, ErrCodeBadRequest, nil},
		{
			"create missing fields", http.MethodPost, "/api/markers",
			`{"seed":"forest","label":"Camp"}`, "VALIDATION_ERROR", []string{"x", "y", "color"},
		},
		{
			"create missing seed", http.MethodPost, "/api/markers",
			`{"x":1,"y":2,"label":"Camp","color":"#fff"}`, "VALIDATION_ERROR", []string{"seed"},
		},
		{
			"list seed too long", http.MethodGet, "/api/markers?seed=" + strings.Repeat("s", models.MaxSeedLength+1),
			"", ErrCodeBadRequest, nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := ts.do(t, tt.method, tt.target, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (%s)", rec.Code, rec.Body.String())
			}
			if resp.Success || resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Fatalf("error = %+v, want code %s", resp.Error, tt.wantCode)
			}
			for _, key := range tt.wantKeys {
				if !strings.Contains(rec.Body.String(), `"field":"`+key+`"`) {
					t.Errorf("body %s does not report field %q", rec.Body.String(), key)
				}
			}
		})
	}

	if got := ts.listLabels(t, "forest"); len(got) != 0 {
		t.Errorf("rejected creates were persisted: %v", got)
	}
}

func TestMarkers_DeleteNotFound(t *testing.T) {
	ts := newTestStack(t, nil, nil)
	id := ts.create(t, "forest", "Camp")

	tests := []struct {
		name   string
		target string
	}{
		{"unknown id", "/api/markers/does-not-exist?seed=forest"},
		{"other seed", "/api/markers/" + id + "?seed=desert"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := ts.do(t, http.MethodDelete, tt.target, "")
			if rec.Code != http.StatusNotFound {
				t.Fatalf("status = %d, want 404", rec.Code)
			}
			if dataMap(t, resp)["ok"] != false {
				t.Errorf("data = %v, want ok:false", resp.Data)
			}
			if resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
				t.Errorf("error = %+v", resp.Error)
			}
		})
	}

	if got := ts.listLabels(t, "forest"); len(got) != 1 {
		t.Errorf("forest = %v, want the marker untouched", got)
	}
}

// unavailableStore fails every call the way an open breaker does.
type unavailableStore struct{ store.Store }

func (unavailableStore) List(context.Context, string) ([]models.Marker, error) {
	return nil, store.ErrUnavailable
}

func (unavailableStore) Create(context.Context, string, *models.MarkerInput) (*models.Marker, error) {
	return nil, store.ErrUnavailable
}

func (unavailableStore) Get(context.Context, string) (*models.Marker, error) {
	return nil, store.ErrUnavailable
}

func (unavailableStore) Ping(context.Context) error { return store.ErrUnavailable }

func (unavailableStore) Name() string { return "unavailable" }

func TestMarkers_StoreUnavailable(t *testing.T) {
	ts := newTestStack(t, nil, unavailableStore{})

	tests := []struct {
		method, target, body string
	}{
		{http.MethodGet, "/api/markers?seed=forest", ""},
		{http.MethodPost, "/api/markers", `{"seed":"forest","x":1,"y":2,"label":"Camp","color":"#fff"}`},
		{http.MethodDelete, "/api/markers/abc?seed=forest", ""},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			rec, resp := ts.do(t, tt.method, tt.target, tt.body)
			if rec.Code != http.StatusServiceUnavailable {
				t.Fatalf("status = %d, want 503", rec.Code)
			}
			if resp.Error == nil || resp.Error.Code != ErrCodeServiceUnavailable {
				t.Errorf("error = %+v", resp.Error)
			}
		})
	}
}

func TestRouter_RequestIDAndSecurityHeaders(t *testing.T) {
	ts := newTestStack(t, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/markers?seed=forest", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("X-Request-ID = %q, want req-123", got)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}

	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Meta == nil || resp.Meta.RequestID != "req-123" {
		t.Errorf("meta = %+v, want request id req-123", resp.Meta)
	}
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RateLimitReqs = 2
	ts := newTestStack(t, cfg, nil)

	var last int
	for i := 0; i < 3; i++ {
		rec, _ := ts.do(t, http.MethodGet, "/api/markers?seed=forest", "")
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", last)
	}

	// Health endpoints are not limited.
	rec, _ := ts.do(t, http.MethodGet, "/api/health/live", "")
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}

func TestRouter_RateLimitDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RateLimitReqs = 1
	cfg.Security.RateLimitDisabled = true
	ts := newTestStack(t, cfg, nil)

	for i := 0; i < 5; i++ {
		if rec, _ := ts.do(t, http.MethodGet, "/api/markers?seed=forest", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rec.Code)
		}
	}
}

func TestRouter_Metrics(t *testing.T) {
	ts := newTestStack(t, nil, nil)
	ts.create(t, "forest", "Camp")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "seedmap_markers_created_total") {
		t.Error("metrics output lacks seedmap_markers_created_total")
	}
}
