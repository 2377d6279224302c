// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

/*
Package api provides the HTTP surface of seedmap on a chi router.

Routes:

	GET    /api/markers?seed=S        {markers:[...]} in creation order
	POST   /api/markers               {saved:true, id} (201)
	DELETE /api/markers/{id}?seed=S   {ok:true}, or 404 {ok:false}
	GET    /api/health                {ok, db, driver, store}
	GET    /api/health/live
	GET    /api/health/ready
	GET    /ws/{seed}                 live session (see package websocket)
	GET    /metrics                   Prometheus exposition
	GET    /, /public/*               static files, when the directory exists

Every JSON body is wrapped in an APIResponse envelope:

	{"success":true,"data":{...},"meta":{"request_id":"...","timestamp":"...","duration_ms":0}}
	{"success":false,"error":{"code":"VALIDATION_ERROR","message":"...","details":{...}},"meta":{...}}

Mutations made over HTTP are broadcast to every live session on the seed.
Store failures map to 500, or 503 while the store circuit breaker is open.
*/
package api
