package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/swimlane/internal/logging"
	"github.com/aretw0/swimlane/pkg/domain"
)

// ReorderPolicy decides when a reorder inside one lane is written to the block history.
type ReorderPolicy int

const (
	// ReorderWhenCrowded records a reorder only when the lane holds more than one item.
	ReorderWhenCrowded ReorderPolicy = iota
	// ReorderAlways records every reorder.
	ReorderAlways
)

// Outcome is the result of a board command.
type Outcome struct {
	// Changed is false when the command was a no-op (blank name, unknown rule index).
	Changed bool

	// State is a snapshot taken after the command. Treat it as read-only.
	State *domain.BoardState
}

// Board is the state owner. It applies commands to the canonical BoardState
// and performs no I/O: persistence and metrics are attached as hooks.
// Board is not safe for concurrent use; callers serialize access.
type Board struct {
	state         *domain.BoardState
	hooks         domain.Hooks
	clock         func() time.Time
	reorderPolicy ReorderPolicy
	logger        *slog.Logger
}

// BoardOption configures a Board.
type BoardOption func(*Board)

// WithHooks registers post-mutation observers.
func WithHooks(hooks domain.Hooks) BoardOption {
	return func(b *Board) {
		b.hooks = hooks
	}
}

// WithClock overrides the time source used for history timestamps.
func WithClock(clock func() time.Time) BoardOption {
	return func(b *Board) {
		if clock != nil {
			b.clock = clock
		}
	}
}

// WithReorderPolicy sets when same-lane reorders are audited.
func WithReorderPolicy(p ReorderPolicy) BoardOption {
	return func(b *Board) {
		b.reorderPolicy = p
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) BoardOption {
	return func(b *Board) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBoard creates a board from an initial state. A nil state starts from domain.DefaultState.
// The initial state is copied; the caller keeps ownership of its value.
func NewBoard(initial *domain.BoardState, opts ...BoardOption) *Board {
	b := &Board{
		clock:  func() time.Time { return time.Now().UTC() },
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.Replace(initial)
	return b
}

// Replace swaps the canonical state without firing hooks.
// Used when a fresher copy was loaded from the store.
func (b *Board) Replace(state *domain.BoardState) {
	if state == nil {
		b.state = domain.DefaultState()
		return
	}
	b.state = state.Clone()
	b.state.Normalize()
}

// State returns a deep copy of the current board.
func (b *Board) State() *domain.BoardState {
	return b.state.Clone()
}

// Locate resolves a block ID to its current positions.
func (b *Board) Locate(blockID string) (laneIndex, blockIndex int, ok bool) {
	return b.state.Locate(blockID)
}

func (b *Board) lane(laneIndex int) (*domain.Lane, error) {
	if laneIndex < 0 || laneIndex >= len(b.state.Lanes) {
		return nil, &domain.IndexError{Kind: domain.ErrInvalidLane, Index: laneIndex, Len: len(b.state.Lanes)}
	}
	return &b.state.Lanes[laneIndex], nil
}

func (b *Board) blockIn(lane *domain.Lane, blockIndex int) error {
	if blockIndex < 0 || blockIndex >= len(lane.Items) {
		return &domain.IndexError{Kind: domain.ErrInvalidBlock, Index: blockIndex, Len: len(lane.Items)}
	}
	return nil
}

// AddBlock appends a new block to a lane. A blank name is a no-op.
func (b *Board) AddBlock(ctx context.Context, laneIndex int, name string) (Outcome, error) {
	lane, err := b.lane(laneIndex)
	if err != nil {
		return Outcome{}, err
	}
	if strings.TrimSpace(name) == "" {
		return Outcome{State: b.State()}, nil
	}

	block := domain.NewBlock(name)
	lane.Items = append(lane.Items, block)

	b.logger.Debug("block added", "lane", lane.Name, "block_id", block.ID)
	return b.commit(ctx, domain.OpAddBlock, block.ID), nil
}

// DeleteBlock removes a block and its history for good.
func (b *Board) DeleteBlock(ctx context.Context, blockIndex, laneIndex int) (Outcome, error) {
	lane, err := b.lane(laneIndex)
	if err != nil {
		return Outcome{}, err
	}
	if err := b.blockIn(lane, blockIndex); err != nil {
		return Outcome{}, err
	}

	removed := lane.Items[blockIndex]
	lane.Items = append(lane.Items[:blockIndex], lane.Items[blockIndex+1:]...)

	b.logger.Debug("block deleted", "lane", lane.Name, "block_id", removed.ID)
	return b.commit(ctx, domain.OpDeleteBlock, removed.ID), nil
}

// MoveBlock moves a block. Inside one lane it reorders to targetBlockIndex
// (negative or past-the-end means the lane's end). Across lanes it consults
// the rule set with 1-based positions and appends to the target's end.
// A deny rule yields a *domain.MoveDeniedError and leaves the board untouched.
func (b *Board) MoveBlock(ctx context.Context, blockIndex, sourceLaneIndex, targetLaneIndex, targetBlockIndex int) (Outcome, error) {
	source, err := b.lane(sourceLaneIndex)
	if err != nil {
		return Outcome{}, err
	}
	target, err := b.lane(targetLaneIndex)
	if err != nil {
		return Outcome{}, err
	}
	if err := b.blockIn(source, blockIndex); err != nil {
		return Outcome{}, err
	}

	if sourceLaneIndex == targetLaneIndex {
		return b.reorder(ctx, source, blockIndex, targetBlockIndex), nil
	}

	verdict := domain.Evaluate(b.state.Rules, sourceLaneIndex+1, targetLaneIndex+1)
	if !verdict.Permits() {
		denial := &domain.MoveDeniedError{
			From:     sourceLaneIndex + 1,
			To:       targetLaneIndex + 1,
			FromLane: source.Name,
			ToLane:   target.Name,
		}
		blockID := source.Items[blockIndex].ID
		b.logger.Debug("move denied", "block_id", blockID, "from", source.Name, "to", target.Name)
		if b.hooks.OnMoveDenied != nil {
			b.hooks.OnMoveDenied(ctx, &domain.DenialEvent{
				Timestamp: b.clock(),
				BlockID:   blockID,
				Denial:    denial,
			})
		}
		return Outcome{}, denial
	}

	moved := source.Items[blockIndex]
	source.Items = append(source.Items[:blockIndex], source.Items[blockIndex+1:]...)
	moved.Record(domain.HistoryMovement, domain.MovedDetail(source.Name, target.Name), b.clock())
	target.Items = append(target.Items, moved)

	b.logger.Debug("block moved", "block_id", moved.ID, "from", source.Name, "to", target.Name, "verdict", verdict.String())
	return b.commit(ctx, domain.OpMoveBlock, moved.ID), nil
}

func (b *Board) reorder(ctx context.Context, lane *domain.Lane, from, to int) Outcome {
	moved := lane.Items[from]
	lane.Items = append(lane.Items[:from], lane.Items[from+1:]...)

	if to < 0 || to > len(lane.Items) {
		to = len(lane.Items)
	}
	lane.Items = append(lane.Items, domain.Block{})
	copy(lane.Items[to+1:], lane.Items[to:])
	lane.Items[to] = moved

	if b.reorderPolicy == ReorderAlways || len(lane.Items) > 1 {
		lane.Items[to].Record(domain.HistoryMovement, domain.ReorderedDetail(from, to, lane.Name), b.clock())
	}

	b.logger.Debug("block reordered", "block_id", moved.ID, "lane", lane.Name, "from", from, "to", to)
	return b.commit(ctx, domain.OpMoveBlock, moved.ID)
}

// EditBlockName renames a block and records the change, even when the name is unchanged.
func (b *Board) EditBlockName(ctx context.Context, blockIndex, laneIndex int, newName string) (Outcome, error) {
	lane, err := b.lane(laneIndex)
	if err != nil {
		return Outcome{}, err
	}
	if err := b.blockIn(lane, blockIndex); err != nil {
		return Outcome{}, err
	}

	block := &lane.Items[blockIndex]
	old := block.Name
	block.Name = newName
	block.Record(domain.HistoryEdit, domain.ChangedDetail(old, newName), b.clock())

	return b.commit(ctx, domain.OpEditBlockName, block.ID), nil
}

// AddRule appends a rule. Lane positions are not checked against the board.
func (b *Board) AddRule(ctx context.Context, rule domain.Rule) (Outcome, error) {
	if !rule.Action.Valid() {
		return Outcome{}, fmt.Errorf("%w: unknown action %q", domain.ErrInvalidRule, rule.Action)
	}
	b.state.Rules = append(b.state.Rules, rule)
	return b.commit(ctx, domain.OpAddRule, ""), nil
}

// DeleteRule removes the rule at ruleIndex. An unknown index is a no-op.
func (b *Board) DeleteRule(ctx context.Context, ruleIndex int) (Outcome, error) {
	if ruleIndex < 0 || ruleIndex >= len(b.state.Rules) {
		return Outcome{State: b.State()}, nil
	}
	b.state.Rules = append(b.state.Rules[:ruleIndex], b.state.Rules[ruleIndex+1:]...)
	return b.commit(ctx, domain.OpDeleteRule, ""), nil
}

// commit notifies observers of a completed mutation.
func (b *Board) commit(ctx context.Context, op domain.Operation, blockID string) Outcome {
	snapshot := b.state.Clone()
	if b.hooks.OnMutation != nil {
		b.hooks.OnMutation(ctx, &domain.MutationEvent{
			Timestamp: b.clock(),
			Op:        op,
			BlockID:   blockID,
			State:     snapshot,
		})
	}
	return Outcome{Changed: true, State: snapshot}
}
