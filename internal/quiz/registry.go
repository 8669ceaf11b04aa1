package quiz

import "sync"

// Registry is the process-wide mapping from room key to its live session.
// A key being present means a quiz is in progress for that room; the entry
// is created by startGame and removed the moment finalize completes. It is
// always injected as a dependency, never reached through package state.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Create inserts a fresh session for roomKey. It fails with ErrAlreadyActive
// if a live session exists, making duplicate start triggers harmless.
func (r *Registry) Create(roomKey string, questions []Question) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[roomKey]; exists {
		return nil, ErrAlreadyActive
	}
	session := newSession(roomKey, questions)
	r.sessions[roomKey] = session
	return session, nil
}

// Get returns the live session for roomKey, if any.
func (r *Registry) Get(roomKey string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[roomKey]
	return session, ok
}

// Remove deletes the entry for roomKey; it is a no-op when absent.
func (r *Registry) Remove(roomKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, roomKey)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
