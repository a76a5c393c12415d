// Package registry tracks live connections, their bound usernames, and the
// derived presence and typing views. It is the single owner of connection
// state; every other component references a connection only by its id.
package registry

import "sync"

// AnonymousName is returned by Lookup for connections that never bound a
// username (or are already gone).
const AnonymousName = "Anonymous"

// Connection is one live client session. Username is empty until a join
// event binds it; Room changes on room-join events.
type Connection struct {
	ID       string
	Username string
	Room     string
	Typing   bool
}

// Registry is a thread-safe index of live connections.
type Registry struct {
	mu          sync.RWMutex
	conns       map[string]*Connection
	defaultRoom string
}

// New creates an empty Registry. New connections start in defaultRoom.
func New(defaultRoom string) *Registry {
	return &Registry{
		conns:       make(map[string]*Connection),
		defaultRoom: defaultRoom,
	}
}

// Register creates an unbound connection for id. Registering an id twice
// resets it to the unbound state.
func (r *Registry) Register(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &Connection{ID: id, Room: r.defaultRoom}
}

// Bind sets the username for id. Last write wins when called twice.
// Binding an unknown id is a silent no-op, which covers the race where the
// connection disconnected before its join event was processed.
func (r *Registry) Bind(id, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conn, ok := r.conns[id]; ok {
		conn.Username = username
	}
}

// SetRoom records the connection's current room. The room is not validated
// against the directory; membership auto-creation happens there.
func (r *Registry) SetRoom(id, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conn, ok := r.conns[id]; ok {
		conn.Room = room
	}
}

// Room returns the connection's current room, or the default room when the
// connection is unknown.
func (r *Registry) Room(id string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if conn, ok := r.conns[id]; ok {
		return conn.Room
	}
	return r.defaultRoom
}

// Unregister removes the connection and its typing state.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
}

// Lookup returns the bound username for id, never failing: unbound or
// unknown connections resolve to AnonymousName.
func (r *Registry) Lookup(id string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if conn, ok := r.conns[id]; ok && conn.Username != "" {
		return conn.Username
	}
	return AnonymousName
}

// FindByUsername returns the ids of every connection bound to username.
func (r *Registry) FindByUsername(username string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, 1)
	for id, conn := range r.conns {
		if conn.Username == username {
			ids = append(ids, id)
		}
	}
	return ids
}

// Presence returns a snapshot of the usernames currently online. Unbound
// connections are invisible to presence.
func (r *Registry) Presence() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]string, 0, len(r.conns))
	for _, conn := range r.conns {
		if conn.Username != "" {
			users = append(users, conn.Username)
		}
	}
	return users
}

// SetTyping toggles the typing flag for id and returns the updated list of
// typing usernames.
func (r *Registry) SetTyping(id string, typing bool) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conn, ok := r.conns[id]; ok {
		conn.Typing = typing
	}
	return r.typingLocked()
}

// TypingUsers returns a snapshot of the usernames currently typing.
func (r *Registry) TypingUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.typingLocked()
}

func (r *Registry) typingLocked() []string {
	users := make([]string, 0)
	for _, conn := range r.conns {
		// Unbound connections are invisible here, same as in Presence.
		if conn.Typing && conn.Username != "" {
			users = append(users, conn.Username)
		}
	}
	return users
}
