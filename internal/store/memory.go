package store

import (
	"context"
	"sync"

	"github.com/kiliankoe/storychain/internal/game"
)

const backendMemory = "memory"

type slot struct {
	mu   sync.Mutex
	game game.Game
}

// Memory keeps the latest snapshot per game in process memory. The map lock
// only guards slot lookup; mutations hold the slot's own lock.
type Memory struct {
	mu    sync.RWMutex
	slots map[string]*slot
}

func NewMemory() *Memory {
	return &Memory{slots: make(map[string]*slot)}
}

func (m *Memory) Create(_ context.Context, g game.Game) error {
	if err := g.Validate(); err != nil {
		return wrap(backendMemory, "create", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slots[g.ID] != nil {
		return ErrExists
	}
	m.slots[g.ID] = &slot{game: g.Clone()}
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (game.Game, error) {
	s := m.slot(id)
	if s == nil {
		return game.Game{}, ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Clone(), nil
}

func (m *Memory) Atomic(ctx context.Context, id string, fn MutateFunc) (game.Game, error) {
	s := m.slot(id)
	if s == nil {
		return game.Game{}, ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return game.Game{}, err
	}
	next, changed, err := fn(s.game.Clone())
	if err != nil {
		return game.Game{}, err
	}
	if !changed {
		return s.game.Clone(), nil
	}
	if err := commit(backendMemory, id, next); err != nil {
		return game.Game{}, err
	}
	s.game = next.Clone()
	return next, nil
}

// Len returns the number of stored games.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.slots)
}

func (m *Memory) Close() error { return nil }

func (m *Memory) slot(id string) *slot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slots[id]
}
