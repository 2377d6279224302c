// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

// Package supervisor runs seedmap's long-lived components under a
// suture/v4 supervisor tree, with supervisor events logged through
// sutureslog.
//
//	seedmap
//	├── store-layer     store maintenance (badger only)
//	├── realtime-layer  websocket hub
//	└── api-layer       HTTP server
//
// Service adapters live in the services subpackage.
package supervisor
