package registry

import (
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/metrics"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/protocol"
)

// Registry indexes live connections by connection id and by user id. The
// one-connection-per-user invariant is enforced by the auth gateway; the
// registry only guarantees that the byUser index always points at the most
// recently registered connection for a user.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]*Connection
	byUser map[string]*Connection
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byID:   make(map[string]*Connection),
		byUser: make(map[string]*Connection),
	}
}

// Register records a freshly authenticated connection and assigns it an id.
func (r *Registry) Register(userID string, profile protocol.Profile, transport Transport) *Connection {
	conn := &Connection{
		ID:        uuid.NewString(),
		UserID:    userID,
		Profile:   profile,
		transport: transport,
	}

	r.mu.Lock()
	r.byID[conn.ID] = conn
	r.byUser[userID] = conn
	total := len(r.byID)
	r.mu.Unlock()

	metrics.Connections.Set(float64(total))
	log.Printf("Connection %s registered for user %s. Total connections: %d", conn.ID, userID, total)
	return conn
}

// Unregister removes a connection. It is the single cleanup entry point for
// transport-close handling and is idempotent: unregistering an unknown id is a
// no-op. It returns the removed connection, or nil if it was already gone.
func (r *Registry) Unregister(connectionID string) *Connection {
	r.mu.Lock()
	conn, ok := r.byID[connectionID]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	delete(r.byID, connectionID)
	// A newer login for the same user may already own the byUser slot.
	if current, ok := r.byUser[conn.UserID]; ok && current == conn {
		delete(r.byUser, conn.UserID)
	}
	total := len(r.byID)
	r.mu.Unlock()

	metrics.Connections.Set(float64(total))
	log.Printf("Connection %s unregistered for user %s. Total connections: %d", conn.ID, conn.UserID, total)
	return conn
}

// LookupByID returns the connection with the given id, or nil.
func (r *Registry) LookupByID(connectionID string) *Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[connectionID]
}

// LookupByUserID returns the live connection for a user, or nil.
func (r *Registry) LookupByUserID(userID string) *Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byUser[userID]
}

// Snapshot returns the current connections. The slice is a copy; the
// connections themselves are shared.
func (r *Registry) Snapshot() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := make([]*Connection, 0, len(r.byID))
	for _, c := range r.byID {
		conns = append(conns, c)
	}
	return conns
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Send delivers an event to one connection if it is online. This is the
// single point-to-point primitive the rest of the server builds on.
func (r *Registry) Send(connectionID string, event any) bool {
	conn := r.LookupByID(connectionID)
	if conn == nil {
		return false
	}
	return conn.Send(event)
}
