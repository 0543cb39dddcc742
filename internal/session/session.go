// Package session owns the signed-in identity: one Session per browser
// context, created at login, replaced on profile updates and destroyed at
// logout. The upstream bearer token and the user record live and die
// together.
package session

import (
	"sync"
	"time"

	"github.com/svargasl/finpanel/internal/models"
)

// Session is the signed-in identity for one browser context. Token is the
// upstream bearer token and is treated as opaque.
type Session struct {
	ID        string
	Token     string
	User      models.User
	CreatedAt time.Time
}

// Role returns the session's role.
func (s *Session) Role() models.Role {
	return s.User.Role
}

// Registry holds the active sessions, keyed by session ID. It is the only
// writer of session state; screens read through it.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Put stores s, replacing any session with the same ID.
func (r *Registry) Put(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

// Get returns the session for id, or false when none exists.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Delete removes the session for id. Token and user record go together;
// there is no partial teardown.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// SetUser replaces the stored user record for id, e.g. after a profile
// update. The map entry is swapped for a fresh copy so pointers handed out
// by earlier Get calls stay immutable snapshots. Returns the updated
// session, or false when the session is gone.
func (r *Registry) SetUser(id string, user models.User) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	next := *s
	next.User = user
	r.sessions[id] = &next
	return &next, true
}

// DeleteExpired removes every session created more than ttl ago and
// returns how many were dropped. Cookies for those sessions have already
// lapsed; the registry entry is the only thing left to collect.
func (r *Registry) DeleteExpired(ttl time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	removed := 0
	for id, s := range r.sessions {
		if s.CreatedAt.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}
