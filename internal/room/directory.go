// Package room maintains the set of known room names and which connections
// belong to which room. A connection belongs to exactly one room at a time.
package room

import (
	"sort"
	"sync"
)

// Directory is a thread-safe index of rooms and their members. The default
// room always exists and cannot be deleted. Rooms are never garbage
// collected: a room with zero members stays listed for the process
// lifetime.
type Directory struct {
	mu          sync.RWMutex
	rooms       map[string]map[string]struct{}
	member      map[string]string // connection id -> current room
	defaultRoom string
}

// NewDirectory creates a Directory seeded with the default room.
func NewDirectory(defaultRoom string) *Directory {
	d := &Directory{
		rooms:       make(map[string]map[string]struct{}),
		member:      make(map[string]string),
		defaultRoom: defaultRoom,
	}
	d.rooms[defaultRoom] = make(map[string]struct{})
	return d
}

// DefaultRoom returns the name of the always-present room.
func (d *Directory) DefaultRoom() string {
	return d.defaultRoom
}

// Create adds name to the known-room set if absent and reports whether it
// was newly created. Creating an existing room is not an error.
func (d *Directory) Create(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.rooms[name]; ok {
		return false
	}
	d.rooms[name] = make(map[string]struct{})
	return true
}

// Join moves the connection into name, implicitly creating the room if it
// is unknown and removing the connection from its previous room.
func (d *Directory) Join(id, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if prev, ok := d.member[id]; ok {
		delete(d.rooms[prev], id)
	}
	if _, ok := d.rooms[name]; !ok {
		d.rooms[name] = make(map[string]struct{})
	}
	d.rooms[name][id] = struct{}{}
	d.member[id] = name
}

// Members returns the connection ids currently in name, empty (never an
// error) when the room is unknown.
func (d *Directory) Members(name string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	set, ok := d.rooms[name]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// LeaveAll removes the connection from every room. Used on disconnect.
func (d *Directory) LeaveAll(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if prev, ok := d.member[id]; ok {
		delete(d.rooms[prev], id)
		delete(d.member, id)
		return
	}
	// The reverse index should always be accurate, but a stale entry in a
	// membership set must not survive a disconnect.
	for _, set := range d.rooms {
		delete(set, id)
	}
}

// Rooms returns the sorted list of known room names.
func (d *Directory) Rooms() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.rooms))
	for name := range d.rooms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
