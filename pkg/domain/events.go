package domain

import (
	"context"
	"time"
)

// Operation names a board command.
type Operation string

const (
	OpAddBlock      Operation = "add_block"
	OpDeleteBlock   Operation = "delete_block"
	OpMoveBlock     Operation = "move_block"
	OpEditBlockName Operation = "edit_block_name"
	OpAddRule       Operation = "add_rule"
	OpDeleteRule    Operation = "delete_rule"
)

// MutationEvent is emitted after an operation changed the board.
type MutationEvent struct {
	Timestamp time.Time   `json:"timestamp"`
	Op        Operation   `json:"op"`
	BlockID   string      `json:"block_id,omitempty"`
	State     *BoardState `json:"state"` // snapshot, safe to keep
}

// DenialEvent is emitted when a deny rule rejected a move.
type DenialEvent struct {
	Timestamp time.Time `json:"timestamp"`
	BlockID   string    `json:"block_id"`
	Denial    *MoveDeniedError
}

// Hooks defines callbacks for board observability and persistence.
// Hooks run synchronously, after the in-memory mutation completed.
type Hooks struct {
	OnMutation   func(context.Context, *MutationEvent)
	OnMoveDenied func(context.Context, *DenialEvent)
}

// Combine fans out to every non-nil hook in order.
func Combine(hooks ...Hooks) Hooks {
	return Hooks{
		OnMutation: func(ctx context.Context, e *MutationEvent) {
			for _, h := range hooks {
				if h.OnMutation != nil {
					h.OnMutation(ctx, e)
				}
			}
		},
		OnMoveDenied: func(ctx context.Context, e *DenialEvent) {
			for _, h := range hooks {
				if h.OnMoveDenied != nil {
					h.OnMoveDenied(ctx, e)
				}
			}
		},
	}
}
