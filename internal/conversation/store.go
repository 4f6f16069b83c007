package conversation

import "sync"

// Store maps user identifiers to conversation states. Read-modify-write
// cycles for the same user are serialized through a per-key lock so two
// concurrent messages from one user cannot race the same state; different
// users proceed in parallel.
//
// Entry structs stay resident once created so a goroutine waiting on a key's
// lock never ends up holding an orphaned lock. A nil state means idle.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu    sync.Mutex
	state *State
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

func (s *Store) entryFor(userID string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok {
		e = &entry{}
		s.entries[userID] = e
	}
	return e
}

// Update runs fn under the user's lock with the current state (nil when the
// user is idle). The returned state replaces the current one; returning nil
// marks the user idle.
func (s *Store) Update(userID string, fn func(current *State) *State) {
	e := s.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = fn(e.state)
}

// Get returns a copy of the user's state, or nil when the user is idle.
func (s *Store) Get(userID string) *State {
	s.mu.Lock()
	e, ok := s.entries[userID]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil
	}
	copied := *e.state
	return &copied
}

// Delete marks the user idle.
func (s *Store) Delete(userID string) {
	e := s.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = nil
}
