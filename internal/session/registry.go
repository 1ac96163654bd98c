// Package session tracks connected streaming clients.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloo-solutions/jobspy-mcp/internal/domain"
	"github.com/cloo-solutions/jobspy-mcp/internal/metrics"
	"github.com/google/uuid"
)

// Transport pushes server-initiated messages to one connected client.
type Transport interface {
	Send(ctx context.Context, msg any) error
}

// Registry maps session ids to transports. Entries are added on connect and
// removed on disconnect; it is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Transport
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Transport)}
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

// Register adds a session. Registering an id twice is an error.
func (r *Registry) Register(id string, t Transport) error {
	if id == "" {
		return fmt.Errorf("session id is required")
	}
	if t == nil {
		return fmt.Errorf("session %s: transport is required", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[id]; exists {
		return fmt.Errorf("session %s is already registered", id)
	}
	r.sessions[id] = t
	metrics.SetActiveSessions(len(r.sessions))
	return nil
}

// Lookup returns the transport for id.
func (r *Registry) Lookup(id string) (Transport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.sessions[id]
	return t, ok
}

// Unregister removes id. Removing an unknown id is a no-op.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	metrics.SetActiveSessions(len(r.sessions))
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.Lookup(id)
	return ok
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Notify sends msg to the session's transport. The send happens outside the
// lock. It returns domain.ErrSessionNotFound when id is not registered.
func (r *Registry) Notify(ctx context.Context, id string, msg any) error {
	t, ok := r.Lookup(id)
	if !ok {
		return domain.NewDomainError(domain.ErrCodeSessionNotFound, fmt.Sprintf("session %s is not registered", id))
	}
	return t.Send(ctx, msg)
}
