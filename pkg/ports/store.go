package ports

import (
	"context"

	"github.com/aretw0/swimlane/pkg/domain"
)

// StateStore defines the durable key-value slot a board is persisted to.
// One key holds one full BoardState blob.
type StateStore interface {
	// Save persists the board under key, replacing any previous value.
	Save(ctx context.Context, key string, state *domain.BoardState) error

	// Load retrieves the board stored under key.
	// Returns domain.ErrBoardNotFound if the key does not exist.
	Load(ctx context.Context, key string) (*domain.BoardState, error)

	// Delete removes the board stored under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the keys of all stored boards.
	List(ctx context.Context) ([]string, error)
}
