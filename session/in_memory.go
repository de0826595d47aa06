package session

import (
	"sync"

	"github.com/hupe1980/reactmesh/core"
)

// InMemoryStore is a volatile HistoryStore implementation storing histories
// in a process local map. It is safe for concurrent access and best suited
// for tests or ephemeral demo servers. Returned turns are cloned to prevent
// external mutation of internal state.
type InMemoryStore struct {
	mu        sync.RWMutex
	histories map[string][]core.Turn
}

// NewInMemoryStore constructs an empty in-memory history store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{histories: make(map[string][]core.Turn)}
}

// Get returns a copy of the session history. Unknown sessions have an empty
// history.
func (s *InMemoryStore) Get(sessionID string) ([]core.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTurns(s.histories[sessionID]), nil
}

// Append adds a turn to an existing or newly created session.
func (s *InMemoryStore) Append(sessionID string, turn core.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[sessionID] = append(s.histories[sessionID], turn.Clone())
	return nil
}

// Replace overwrites the session history with a copy of turns.
func (s *InMemoryStore) Replace(sessionID string, turns []core.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[sessionID] = cloneTurns(turns)
	return nil
}

// Delete drops a session.
func (s *InMemoryStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.histories, sessionID)
}

// Sessions returns the ids of all stored sessions.
func (s *InMemoryStore) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.histories))
	for id := range s.histories {
		ids = append(ids, id)
	}
	return ids
}

func cloneTurns(turns []core.Turn) []core.Turn {
	out := make([]core.Turn, len(turns))
	for i, t := range turns {
		out[i] = t.Clone()
	}
	return out
}
