// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

/*
Package websocket implements room-scoped live marker sync over gorilla/websocket.

Every connection to /ws/{seed} becomes a Session bound to that seed. Sessions
sharing a seed form a room; rooms live in the Registry and vanish with their
last member.

Key Components:

  - Registry: seed -> set of sessions, guarded by one RWMutex
  - Broadcaster: encodes an event once and hands it to each member's queue
  - Session: one connection, with a reader and a writer goroutine
  - Hub: attaches upgraded connections and closes all sessions on shutdown

Protocol:

Server to client:

	{"op":"snapshot","markers":[...]}   once, right after joining
	{"op":"added","marker":{...}}
	{"op":"removed","id":"..."}

Client to server:

	{"op":"add","marker":{"x":1,"y":2,"label":"Camp","color":"#0f0"}}
	{"op":"remove","id":"..."}

An add is always bound to the session's seed. The sender gets its added or
removed event directly; the rest of the room gets it through the
Broadcaster. Malformed messages, unknown ops and removes of unknown ids are
ignored without closing the connection.

Session Lifecycle:

	Connecting -> Joined -> Active -> Closed

  1. Connecting: registered in the room, snapshot read from the store
  2. Joined: snapshot queued ahead of anything broadcast meanwhile
  3. Active: reader and writer goroutines running
  4. Closed: left the room, connection closed; entered exactly once

Backpressure:

Broadcast never blocks. A session whose queue is full (or that already
closed) is reported in BroadcastResult.Dropped, removed from the room and
closed. The writer pings every 90% of the pong wait; a peer that stops
answering times out on read.
*/
package websocket
