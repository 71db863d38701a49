// Package session keeps the in-memory registry of active upload sessions.
// Contributors abandon uploads; the janitor purges anything stale.
package session

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dataforaction-tom/local-needs-databank-tw-sub000/internal/ingest"
)

// Store manages upload sessions in memory, keyed by session id.
type Store struct {
	sessions map[uuid.UUID]*ingest.Session
	mu       sync.RWMutex
}

// NewStore creates and returns a new Store.
func NewStore() *Store {
	return &Store{sessions: make(map[uuid.UUID]*ingest.Session)}
}

// Put registers a session.
func (s *Store) Put(sess *ingest.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

// Get returns the session with the given id.
func (s *Store) Get(id uuid.UUID) (*ingest.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Delete removes a session.
func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of active sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// PurgeStale drops sessions not touched within maxAge and returns how many
// were removed. Sessions mid-submission are left alone.
func (s *Store) PurgeStale(maxAge time.Duration) int {
	cutoff := time.Now().UTC().Add(-maxAge)
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for id, sess := range s.sessions {
		if sess.IsStale(cutoff) {
			delete(s.sessions, id)
			purged++
		}
	}
	if purged > 0 {
		log.Printf("SessionStore: purged %d stale sessions (older than %s)", purged, maxAge)
	}
	return purged
}
