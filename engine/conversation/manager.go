package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Manager runs turns against stored state. Turns for the same user run one
// at a time in arrival order; different users proceed in parallel.
type Manager struct {
	store Store
	locks *keyLock
	now   func() time.Time
}

// NewManager returns a Manager backed by store.
func NewManager(store Store) *Manager {
	return &Manager{store: store, locks: newKeyLock(), now: time.Now}
}

// Now returns the manager's clock reading.
func (m *Manager) Now() time.Time { return m.now() }

// Do locks userID, loads (or creates) its state, runs f, and saves the state
// whatever f returns. f's error is returned after the save; a failed save is
// joined to it and matches ErrSaveFailed.
func (m *Manager) Do(ctx context.Context, userID string, f func(ctx context.Context, s *State) error) error {
	unlock, err := m.locks.Lock(ctx, userID)
	if err != nil {
		return fmt.Errorf("conversation: lock %s: %w", userID, err)
	}
	defer unlock()

	s, err := m.store.Load(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		s = NewState(userID, m.now())
	} else if err != nil {
		return fmt.Errorf("conversation: load %s: %w", userID, err)
	}

	ferr := f(ctx, s)
	if err := m.store.Save(context.WithoutCancel(ctx), s); err != nil {
		return errors.Join(ferr, fmt.Errorf("%w: %s: %w", ErrSaveFailed, userID, err))
	}
	return ferr
}

// Snapshot returns the stored state for userID without taking the turn lock.
func (m *Manager) Snapshot(ctx context.Context, userID string) (*State, error) {
	s, err := m.store.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("conversation: snapshot %s: %w", userID, err)
	}
	return s, nil
}
