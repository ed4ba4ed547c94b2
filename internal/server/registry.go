// Package server tracks room membership through the Registry type, the single
// process-wide mapping from room ID to the set of connected members.
package server

import "sync"

// Registry maps room IDs to member sets. A room exists exactly while its
// member set is non-empty: Join creates the set on first member, Leave deletes
// it with the last. All operations are serialized by a single mutex, which
// also linearizes membership snapshots taken during broadcasts.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

// NewRegistry creates an empty room registry. Each Hub owns its own Registry;
// there is no package-level instance.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]map[*Client]struct{})}
}

// Join adds a client to the member set for roomID, creating the room if it
// does not exist yet. Joining twice with the same client is a no-op.
func (r *Registry) Join(roomID string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[*Client]struct{})
		r.rooms[roomID] = members
	}
	members[client] = struct{}{}
}

// Leave removes a client from the member set for roomID. The room entry is
// deleted as soon as the set becomes empty, so stale room keys never
// accumulate. Leaving an absent room or an absent member is a no-op.
func (r *Registry) Leave(roomID string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(members, client)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
}

// Members returns a snapshot of the clients currently in roomID. An absent
// room yields an empty slice, never an error.
func (r *Registry) Members(roomID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]*Client, 0, len(r.rooms[roomID]))
	for client := range r.rooms[roomID] {
		members = append(members, client)
	}
	return members
}

// MemberCount returns the number of clients currently in roomID.
func (r *Registry) MemberCount(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}

// ActiveUsers returns the identity of every current member of roomID, as
// carried in user-joined and user-left notifications.
func (r *Registry) ActiveUsers(roomID string) []User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]User, 0, len(r.rooms[roomID]))
	for client := range r.rooms[roomID] {
		users = append(users, User{Username: client.username, ID: client.userID})
	}
	return users
}

// RoomCount returns the number of rooms that currently have members.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
