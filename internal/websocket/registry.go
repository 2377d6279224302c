// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package websocket

import (
	"sort"
	"sync"
)

// Registry maps each seed to the set of sessions joined to it.
//
// A room exists only while it has at least one member. All methods are safe
// for concurrent use; readers get point-in-time copies.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[*Session]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]map[*Session]struct{})}
}

// Join adds s to the room for seed, creating the room if needed. It
// reports whether s was newly added.
func (r *Registry) Join(seed string, s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[seed]
	if !ok {
		room = make(map[*Session]struct{})
		r.rooms[seed] = room
	}
	if _, exists := room[s]; exists {
		return false
	}
	room[s] = struct{}{}
	return true
}

// Leave removes s from the room for seed and drops the room once empty.
// It reports whether s was a member.
func (r *Registry) Leave(seed string, s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[seed]
	if !ok {
		return false
	}
	if _, exists := room[s]; !exists {
		return false
	}
	delete(room, s)
	if len(room) == 0 {
		delete(r.rooms, seed)
	}
	return true
}

// MembersOf returns the sessions of seed ordered by session id.
func (r *Registry) MembersOf(seed string) []*Session {
	r.mu.RLock()
	room := r.rooms[seed]
	members := make([]*Session, 0, len(room))
	for s := range room {
		members = append(members, s)
	}
	r.mu.RUnlock()

	sortSessions(members)
	return members
}

// All returns every session of every room ordered by session id.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	var all []*Session
	for _, room := range r.rooms {
		for s := range room {
			all = append(all, s)
		}
	}
	r.mu.RUnlock()

	sortSessions(all)
	return all
}

// Rooms returns the seeds that currently have members, sorted.
func (r *Registry) Rooms() []string {
	r.mu.RLock()
	seeds := make([]string, 0, len(r.rooms))
	for seed := range r.rooms {
		seeds = append(seeds, seed)
	}
	r.mu.RUnlock()

	sort.Strings(seeds)
	return seeds
}

// RoomCount returns the number of non-empty rooms.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// SessionCount returns the number of joined sessions across all rooms.
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, room := range r.rooms {
		n += len(room)
	}
	return n
}

// CloseAll closes every session. Sessions leave the registry as they close.
func (r *Registry) CloseAll() int {
	sessions := r.All()
	for _, s := range sessions {
		s.Close()
	}
	return len(sessions)
}

func sortSessions(sessions []*Session) {
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].id < sessions[j].id
	})
}
