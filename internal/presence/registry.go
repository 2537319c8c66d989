// internal/presence/registry.go
package presence

import (
	"sort"
	"sync"
)

// Registry tracks which users are active in which campaign room. It is
// server-resident bookkeeping only: rooms exist while they have members and
// are deleted when the last member leaves. Nothing here survives a restart.
//
// The registry is an injected instance, not package state, so it can be
// unit-tested without a live transport.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]map[string]struct{})}
}

// Join adds userID to the campaign's room, creating the room if absent.
// Joining twice has no additional effect.
func (r *Registry) Join(campaignID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[campaignID]
	if !ok {
		room = make(map[string]struct{})
		r.rooms[campaignID] = room
	}
	room[userID] = struct{}{}
}

// Leave removes userID from the room. The room entry is deleted entirely
// once its member set is empty.
func (r *Registry) Leave(campaignID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[campaignID]
	if !ok {
		return
	}
	delete(room, userID)
	if len(room) == 0 {
		delete(r.rooms, campaignID)
	}
}

// Members returns a sorted snapshot of the room's member ids. An absent
// room yields an empty slice.
func (r *Registry) Members(campaignID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.rooms[campaignID]
	members := make([]string, 0, len(room))
	for userID := range room {
		members = append(members, userID)
	}
	sort.Strings(members)
	return members
}

// Active reports whether the campaign currently has a room.
func (r *Registry) Active(campaignID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.rooms[campaignID]
	return ok
}
