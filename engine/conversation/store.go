package conversation

import (
	"context"
	"sync"
)

// Store persists conversation state. Implementations return copies, so a
// caller may mutate a loaded State freely.
type Store interface {
	Load(ctx context.Context, userID string) (*State, error)
	Save(ctx context.Context, s *State) error
}

// MemoryStore keeps state in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]*State
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]*State)}
}

func (m *MemoryStore) Load(_ context.Context, userID string) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.states[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[s.UserID] = s.Clone()
	return nil
}
