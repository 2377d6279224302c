// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

// Package services adapts seedmap components to suture.Service.
//
// Each adapter takes a small interface instead of the concrete type, so
// this package does not import the websocket or store packages:
//
//   - HTTPServerService: *http.Server, graceful Shutdown on cancel
//   - WebSocketHubService: *websocket.Hub via RunWithContext
//   - StoreMaintenanceService: any store with Maintain, on a ticker
package services
