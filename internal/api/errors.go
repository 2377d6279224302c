// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package api

import "errors"

var (
	// errNoStore is reported by health checks when no store is wired.
	errNoStore = errors.New("no marker store configured")

	// ErrHubUnavailable is logged when a live connection arrives before the
	// hub is wired.
	ErrHubUnavailable = errors.New("websocket hub not available")
)
