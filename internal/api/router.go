// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/seedmap/internal/logging"
	"github.com/tomtom215/seedmap/internal/middleware"
)

// Router wires the handlers into a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	staticDir     string
}

// NewRouter creates a router. An empty staticDir, or one that does not
// exist, disables the static routes.
func NewRouter(handler *Handler, mw *ChiMiddleware, staticDir string) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: mw,
		staticDir:     staticDir,
	}
}

// chiMiddleware adapts http.HandlerFunc middleware to chi's r.Use.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// SetupChi builds the route tree.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.Route("/api/health", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/markers", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Get("/", router.handler.ListMarkers)
		r.Post("/", router.handler.CreateMarker)
		r.Delete("/{id}", router.handler.DeleteMarker)
	})

	// Upgrades are rate limited like the API; the session itself is
	// limited per message.
	r.With(router.chiMiddleware.RateLimit()).Get("/ws/{seed}", router.handler.WebSocket)

	r.Handle("/metrics", promhttp.Handler())

	router.mountStatic(r)
	return r
}

func (router *Router) mountStatic(r chi.Router) {
	if router.staticDir == "" {
		return
	}
	info, err := os.Stat(router.staticDir)
	if err != nil || !info.IsDir() {
		logging.Info().Str("static_dir", router.staticDir).Msg("Static directory not found, static routes disabled")
		return
	}

	fs := http.StripPrefix("/public/", http.FileServer(http.Dir(router.staticDir)))
	r.Get("/public/*", fs.ServeHTTP)

	index := filepath.Join(router.staticDir, "index.html")
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, index)
	})
}
