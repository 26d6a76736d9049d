package session

import (
	"testing"
	"time"
)

func TestLifecycle(t *testing.T) {
	s := NewStore(time.Hour)

	id, err := s.Create(42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatalf("expected opaque session id")
	}

	userID, ok := s.Lookup(id)
	if !ok || userID != 42 {
		t.Fatalf("lookup = (%d, %v), want (42, true)", userID, ok)
	}

	s.Destroy(id)
	if _, ok := s.Lookup(id); ok {
		t.Fatalf("destroyed session must not resolve")
	}
}

func TestAnonymousSession(t *testing.T) {
	s := NewStore(time.Hour)

	id, err := s.Create(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	userID, ok := s.Lookup(id)
	if !ok || userID != 0 {
		t.Fatalf("lookup = (%d, %v), want (0, true)", userID, ok)
	}
}

func TestExpiry(t *testing.T) {
	s := NewStore(10 * time.Millisecond)

	id, err := s.Create(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(25 * time.Millisecond)
	if _, ok := s.Lookup(id); ok {
		t.Fatalf("expired session must not resolve")
	}
}

func TestFlashesAreSingleUse(t *testing.T) {
	s := NewStore(time.Hour)
	id, err := s.Create(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.AddFlash(id, "first")
	s.AddFlash(id, "second")

	flashes := s.TakeFlashes(id)
	if len(flashes) != 2 || flashes[0] != "first" || flashes[1] != "second" {
		t.Fatalf("got %v", flashes)
	}
	if again := s.TakeFlashes(id); again != nil {
		t.Fatalf("flashes must be cleared after reading, got %v", again)
	}

	// Unknown ids are a no-op, not a fault.
	s.AddFlash("missing", "x")
	if got := s.TakeFlashes("missing"); got != nil {
		t.Fatalf("got %v", got)
	}
}

func TestExpiredSessionsAreSwept(t *testing.T) {
	s := NewStore(5 * time.Millisecond)

	for i := 0; i < 50; i++ {
		if _, err := s.Create(0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	time.Sleep(15 * time.Millisecond)

	// The next Create reclaims every expired record, not just the one id
	// being touched.
	if _, err := s.Create(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.mu.Lock()
	retained := len(s.sessions)
	s.mu.Unlock()
	if retained != 1 {
		t.Fatalf("%d records retained after expiry, want 1", retained)
	}
}

func TestUniqueIDs(t *testing.T) {
	s := NewStore(time.Hour)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id, err := s.Create(i)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate session id %q", id)
		}
		seen[id] = true
	}
}
