package middleware_test

import (
	"context"

	"github.com/aretw0/swimlane/pkg/domain"
	"github.com/aretw0/swimlane/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data map[string]*domain.BoardState
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.BoardState),
	}
}

func (s *MockStore) Save(ctx context.Context, key string, state *domain.BoardState) error {
	s.data[key] = state
	return nil
}

func (s *MockStore) Load(ctx context.Context, key string) (*domain.BoardState, error) {
	state, ok := s.data[key]
	if !ok {
		return nil, domain.ErrBoardNotFound
	}
	return state, nil
}

func (s *MockStore) Delete(ctx context.Context, key string) error {
	delete(s.data, key)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ ports.StateStore = (*MockStore)(nil)
