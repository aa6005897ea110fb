package registry

import (
	"sync"
	"time"
)

// MemStore implements Store with an insertion-ordered slice guarded by one
// RWMutex. Entries older than the window are compacted away opportunistically
// during reads, so the slice never grows past one window of traffic plus
// whatever arrived since.
type MemStore struct {
	mu      sync.RWMutex
	entries []Entry
	window  time.Duration
}

// NewMemStore creates an in-memory store with configuration options.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		window: defaultWindow,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Window returns the active horizon.
func (s *MemStore) Window() time.Duration {
	return s.window
}

// Persist appends an entry.
func (s *MemStore) Persist(entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

// ActiveEntries returns all non-expired entries in insertion order. Expiry
// is monotone, so expired rows are compacted away while we hold the write
// lock; rounds completing out of order across users keep their insertion
// positions.
func (s *MemStore) ActiveEntries(now time.Time) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	for _, e := range s.entries {
		if now.Sub(e.CreatedAt) <= s.window {
			kept = append(kept, e)
		}
	}
	s.entries = kept

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Remove purges every entry belonging to userID.
func (s *MemStore) Remove(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.UserID != userID {
			kept = append(kept, e)
		}
	}
	s.entries = kept
}

// Clear drops every entry.
func (s *MemStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

// Len returns the number of stored entries.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
