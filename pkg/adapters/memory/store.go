package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/swimlane/pkg/domain"
)

// Store implements ports.StateStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.BoardState
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.BoardState),
	}
}

// Save persists a deep copy of the board, so later mutations by the caller
// cannot leak into the store.
func (s *Store) Save(ctx context.Context, key string, state *domain.BoardState) error {
	copied := state.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = copied
	return nil
}

// Load retrieves a copy of the board from memory.
func (s *Store) Load(ctx context.Context, key string) (*domain.BoardState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[key]
	if !ok {
		return nil, domain.ErrBoardNotFound
	}
	return state.Clone(), nil
}

// Delete removes the board.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns stored board keys in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for key := range s.data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
