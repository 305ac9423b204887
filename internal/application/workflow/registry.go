package workflow

import (
	"sync"
	"time"

	"academy/internal/domain/member"
	"academy/internal/domain/operator"
)

type screenKey struct {
	sessionID string
	kind      member.Kind
}

// Registry holds the live screens of every session.
type Registry struct {
	backend Backend

	mu      sync.RWMutex
	screens map[screenKey]*Screen
}

// NewRegistry creates an empty registry whose screens use backend.
func NewRegistry(backend Backend) *Registry {
	return &Registry{backend: backend, screens: make(map[screenKey]*Screen)}
}

// Get returns the session's screen for kind, if one is open.
func (r *Registry) Get(sessionID string, kind member.Kind) (*Screen, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.screens[screenKey{sessionID, kind}]
	return s, ok
}

// Open returns the session's screen for kind, creating an idle one if needed.
// PRE: owner is the session's operator
// POST: Returns operator.ErrForbidden when the role may not mark that roster;
// created reports whether the caller must Load the new screen
func (r *Registry) Open(sessionID string, owner Owner, kind member.Kind) (screen *Screen, created bool, err error) {
	caps, err := operator.CapabilitiesFor(owner.Operator.Role, kind)
	if err != nil {
		return nil, false, err
	}
	key := screenKey{sessionID, kind}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.screens[key]; ok {
		return s, false, nil
	}
	s := NewScreen(owner, caps, r.backend)
	r.screens[key] = s
	return s, true, nil
}

// Discard drops every screen of the session, returning how many were open.
func (r *Registry) Discard(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for key := range r.screens {
		if key.sessionID == sessionID {
			delete(r.screens, key)
			n++
		}
	}
	return n
}

// DiscardExpired drops screens whose owning session has expired by now.
// Screens with an unknown expiry are kept.
// POST: Returns how many screens were dropped
func (r *Registry) DiscardExpired(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for key, s := range r.screens {
		if exp := s.owner.ExpiresAt; !exp.IsZero() && !now.Before(exp) {
			delete(r.screens, key)
			n++
		}
	}
	return n
}

// Len returns the number of open screens.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.screens)
}
