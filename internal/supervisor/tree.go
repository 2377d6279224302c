// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig controls restart and shutdown behaviour for every layer.
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff.
	FailureThreshold float64

	// FailureDecay is the failure decay rate in seconds.
	FailureDecay float64

	// FailureBackoff is how long a layer waits once the threshold is hit.
	FailureBackoff time.Duration

	// ShutdownTimeout bounds how long a service may take to stop.
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns suture's own defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func (c TreeConfig) withDefaults() TreeConfig {
	d := DefaultTreeConfig()
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.FailureDecay <= 0 {
		c.FailureDecay = d.FailureDecay
	}
	if c.FailureBackoff <= 0 {
		c.FailureBackoff = d.FailureBackoff
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	return c
}

func (c TreeConfig) spec() suture.Spec {
	return suture.Spec{
		FailureThreshold: c.FailureThreshold,
		FailureDecay:     c.FailureDecay,
		FailureBackoff:   c.FailureBackoff,
		Timeout:          c.ShutdownTimeout,
	}
}

// Layer names, as they appear in supervisor log events.
const (
	RootName      = "seedmap"
	StoreLayer    = "store-layer"
	RealtimeLayer = "realtime-layer"
	APILayer      = "api-layer"
)

// SupervisorTree is the process supervisor for seedmap.
//
// Layers:
//   - store: background store maintenance (badger value log GC)
//   - realtime: the websocket hub
//   - api: the HTTP server
//
// A crash in one layer restarts only that layer's services.
type SupervisorTree struct {
	root     *suture.Supervisor
	store    *suture.Supervisor
	realtime *suture.Supervisor
	api      *suture.Supervisor
	config   TreeConfig
}

// NewSupervisorTree builds the tree. Zero config fields take defaults.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) *SupervisorTree {
	config = config.withDefaults()

	// MustHook has a pointer receiver.
	rootSpec := config.spec()
	rootSpec.EventHook = (&sutureslog.Handler{Logger: logger}).MustHook()

	// Children inherit the root's EventHook once added.
	t := &SupervisorTree{
		root:     suture.New(RootName, rootSpec),
		store:    suture.New(StoreLayer, config.spec()),
		realtime: suture.New(RealtimeLayer, config.spec()),
		api:      suture.New(APILayer, config.spec()),
		config:   config,
	}
	t.root.Add(t.store)
	t.root.Add(t.realtime)
	t.root.Add(t.api)
	return t
}

// Config returns the effective configuration.
func (t *SupervisorTree) Config() TreeConfig { return t.config }

// AddStoreService adds a service to the store layer.
func (t *SupervisorTree) AddStoreService(svc suture.Service) suture.ServiceToken {
	return t.store.Add(svc)
}

// AddRealtimeService adds a service to the realtime layer.
func (t *SupervisorTree) AddRealtimeService(svc suture.Service) suture.ServiceToken {
	return t.realtime.Add(svc)
}

// AddAPIService adds a service to the API layer.
func (t *SupervisorTree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve runs the tree until ctx is canceled.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine. The channel yields the
// result once the tree stops.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that ignored the shutdown timeout.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
