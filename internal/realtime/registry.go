package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Registry is the live mapping of online user identity to connection
// handle. It is the single source of truth for "who is online": the
// gateway is the only writer, every fan-out component reads it.
//
// At most one entry exists per user. A reconnect overwrites the prior
// entry (last-writer-wins); closing the superseded socket is the
// gateway's job when its read loop notices the disconnect.
type Registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]Pusher
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[uuid.UUID]Pusher)}
}

// Register binds conn to userID, unconditionally replacing any prior
// entry for that user.
func (r *Registry) Register(userID uuid.UUID, conn Pusher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[userID] = conn
}

// Unregister removes the entry for userID only if it still holds conn.
// A disconnect racing a reconnect must not evict the newer connection.
// Returns whether an entry was removed.
func (r *Registry) Unregister(userID uuid.UUID, conn Pusher) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conns[userID] != conn {
		return false
	}
	delete(r.conns, userID)
	return true
}

// Lookup returns the connection for userID, if online.
func (r *Registry) Lookup(userID uuid.UUID) (Pusher, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[userID]
	return conn, ok
}

// ListOnline returns the identities of every online user.
func (r *Registry) ListOnline() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(r.conns))
	for id := range r.conns {
		out = append(out, id)
	}
	return out
}

// Connections returns a snapshot of every live connection, for
// broadcasts. Entries may die between snapshot and push; pushes to
// them fail harmlessly.
func (r *Registry) Connections() []Pusher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Pusher, 0, len(r.conns))
	for _, conn := range r.conns {
		out = append(out, conn)
	}
	return out
}

// Len returns the number of online users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
