// Package session holds the in-process session and flash-notice store.
// Session ids are opaque random tokens handed to the client in a cookie;
// the server-side record links the id to an authenticated user (or to no
// user for anonymous visitors, who still need a home for flash notices).
package session

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

const idBytes = 32

type record struct {
	userID    int
	expiresAt time.Time
	flashes   []string
}

type Store struct {
	mu        sync.Mutex
	ttl       time.Duration
	sessions  map[string]*record
	lastSweep time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:       ttl,
		sessions:  make(map[string]*record),
		lastSweep: time.Now(),
	}
}

// Create starts a new session. userID 0 marks an anonymous session.
// Every visitor without a cookie gets a record, so Create also sweeps
// expired entries (at most once per TTL) to keep the map bounded.
func (s *Store) Create(userID int) (string, error) {
	buf := make([]byte, idBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	id := hex.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if now.Sub(s.lastSweep) >= s.ttl {
		for staleID, rec := range s.sessions {
			if now.After(rec.expiresAt) {
				delete(s.sessions, staleID)
			}
		}
		s.lastSweep = now
	}

	s.sessions[id] = &record{
		userID:    userID,
		expiresAt: now.Add(s.ttl),
	}
	return id, nil
}

// Lookup resolves a session id to its user id. ok is false for unknown or
// expired ids; userID is 0 for anonymous sessions.
func (s *Store) Lookup(id string) (userID int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, found := s.sessions[id]
	if !found {
		return 0, false
	}
	if time.Now().After(rec.expiresAt) {
		delete(s.sessions, id)
		return 0, false
	}
	return rec.userID, true
}

// Destroy drops the session, clearing its user reference and any pending
// flashes.
func (s *Store) Destroy(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// AddFlash queues a one-shot notice on the session.
func (s *Store) AddFlash(id, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.sessions[id]; ok {
		rec.flashes = append(rec.flashes, msg)
	}
}

// TakeFlashes returns the session's pending notices and clears them.
func (s *Store) TakeFlashes(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[id]
	if !ok || len(rec.flashes) == 0 {
		return nil
	}
	flashes := rec.flashes
	rec.flashes = nil
	return flashes
}
