package swimlane

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/swimlane/internal/logging"
	"github.com/aretw0/swimlane/internal/runtime"
	"github.com/aretw0/swimlane/pkg/adapters/memory"
	"github.com/aretw0/swimlane/pkg/domain"
	"github.com/aretw0/swimlane/pkg/persistence"
	"github.com/aretw0/swimlane/pkg/ports"
)

// Outcome is the result of a board command: whether it changed anything and the snapshot after it.
type Outcome = runtime.Outcome

// ReorderPolicy decides when reorders inside one lane are written to block history.
type ReorderPolicy = runtime.ReorderPolicy

const (
	// ReorderWhenCrowded audits a reorder only when the lane holds more than one item.
	ReorderWhenCrowded = runtime.ReorderWhenCrowded
	// ReorderAlways audits every reorder.
	ReorderAlways = runtime.ReorderAlways
)

// Board is the high-level entry point for the Swimlane library.
// It owns one board, persists it after every successful command and is safe for concurrent use.
type Board struct {
	mu          sync.Mutex
	runtime     *runtime.Board
	persistence *persistence.Adapter
	store       ports.StateStore

	key     string
	hooks   []domain.Hooks
	clock   func() time.Time
	reorder ReorderPolicy
	onFault persistence.FaultObserver
	logger  *slog.Logger
}

// Option defines a functional option for configuring the Board.
type Option func(*Board)

// WithStore sets the durable store. Defaults to an in-memory store.
func WithStore(store ports.StateStore) Option {
	return func(b *Board) {
		b.store = store
	}
}

// WithKey sets the slot the board is persisted under (default "lanesState").
func WithKey(key string) Option {
	return func(b *Board) {
		b.key = key
	}
}

// WithLogger sets a custom structured logger for the board.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Board) {
		b.logger = logger
	}
}

// WithHooks registers additional observers (metrics, audit logging).
// They run after persistence. May be given more than once.
func WithHooks(hooks domain.Hooks) Option {
	return func(b *Board) {
		b.hooks = append(b.hooks, hooks)
	}
}

// WithClock overrides the time source for history timestamps.
func WithClock(clock func() time.Time) Option {
	return func(b *Board) {
		b.clock = clock
	}
}

// WithReorderHistory sets when same-lane reorders are audited.
func WithReorderHistory(p ReorderPolicy) Option {
	return func(b *Board) {
		b.reorder = p
	}
}

// WithFaultObserver is told about swallowed persistence faults.
func WithFaultObserver(fn persistence.FaultObserver) Option {
	return func(b *Board) {
		b.onFault = fn
	}
}

// New loads the board from its store (or starts from the default three-lane board)
// and returns it ready for commands. Load faults are logged, never returned.
func New(ctx context.Context, opts ...Option) *Board {
	b := configure(opts)
	b.start(b.persistence.Load(ctx))
	return b
}

// Open is New for hosts that must not mistake a read fault for an empty board.
// A missing slot still opens the default board; any other fault is returned.
func Open(ctx context.Context, opts ...Option) (*Board, error) {
	b := configure(opts)
	state, err := b.persistence.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("open board %q: %w", b.key, err)
	}
	b.start(state)
	return b, nil
}

func configure(opts []Option) *Board {
	b := &Board{
		key:     persistence.DefaultKey,
		reorder: ReorderWhenCrowded,
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.logger == nil {
		b.logger = logging.NewNop()
	}
	if b.store == nil {
		b.store = memory.NewStore()
	}
	b.logger = b.logger.With("board", b.key)

	b.persistence = persistence.NewAdapter(b.store,
		persistence.WithKey(b.key),
		persistence.WithLogger(b.logger),
		persistence.WithFaultObserver(b.onFault),
	)
	return b
}

func (b *Board) start(state *domain.BoardState) {
	hooks := append([]domain.Hooks{b.persistence.Hook()}, b.hooks...)
	b.runtime = runtime.NewBoard(state,
		runtime.WithHooks(domain.Combine(hooks...)),
		runtime.WithClock(b.clock),
		runtime.WithReorderPolicy(b.reorder),
		runtime.WithLogger(b.logger),
	)
}

// Key returns the slot the board is persisted under.
func (b *Board) Key() string {
	return b.key
}

// Store returns the underlying state store.
func (b *Board) Store() ports.StateStore {
	return b.store
}

// State returns a read-only snapshot (a deep copy) of the board.
func (b *Board) State() *domain.BoardState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.runtime.State()
}

// Reload replaces the in-memory board with what the store holds now.
// Hosts sharing a store across replicas call this under a distributed lock.
// A missing slot resets to the default board; on any other fault the current
// board is kept and the error returned.
func (b *Board) Reload(ctx context.Context) error {
	state, err := b.persistence.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("reload board %q: %w", b.key, err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.runtime.Replace(state)
	return nil
}

// AddBlock appends a block named name to the lane at laneIndex. Blank names are ignored.
func (b *Board) AddBlock(ctx context.Context, laneIndex int, name string) (Outcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.runtime.AddBlock(ctx, laneIndex, name)
}

// DeleteBlock removes the block at blockIndex in the lane at laneIndex, history included.
func (b *Board) DeleteBlock(ctx context.Context, blockIndex, laneIndex int) (Outcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.runtime.DeleteBlock(ctx, blockIndex, laneIndex)
}

// MoveBlock moves a block between lanes, or reorders it when source equals target.
// A deny rule yields an error matching domain.ErrMoveDenied; use Denied to extract details.
func (b *Board) MoveBlock(ctx context.Context, blockIndex, sourceLaneIndex, targetLaneIndex, targetBlockIndex int) (Outcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.runtime.MoveBlock(ctx, blockIndex, sourceLaneIndex, targetLaneIndex, targetBlockIndex)
}

// EditBlockName renames a block and records an Edit entry in its history.
func (b *Board) EditBlockName(ctx context.Context, blockIndex, laneIndex int, newName string) (Outcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.runtime.EditBlockName(ctx, blockIndex, laneIndex, newName)
}

// AddRule appends a movement rule.
func (b *Board) AddRule(ctx context.Context, rule domain.Rule) (Outcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.runtime.AddRule(ctx, rule)
}

// DeleteRule removes the rule at ruleIndex.
func (b *Board) DeleteRule(ctx context.Context, ruleIndex int) (Outcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.runtime.DeleteRule(ctx, ruleIndex)
}

// MoveBlockByID moves a block addressed by its stable ID. Its position is
// resolved at call time, so stale indices held by a UI cannot hit the wrong block.
func (b *Board) MoveBlockByID(ctx context.Context, blockID string, targetLaneIndex, targetBlockIndex int) (Outcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	lane, block, err := b.locate(blockID)
	if err != nil {
		return Outcome{}, err
	}
	return b.runtime.MoveBlock(ctx, block, lane, targetLaneIndex, targetBlockIndex)
}

// EditBlockNameByID renames a block addressed by its stable ID.
func (b *Board) EditBlockNameByID(ctx context.Context, blockID, newName string) (Outcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	lane, block, err := b.locate(blockID)
	if err != nil {
		return Outcome{}, err
	}
	return b.runtime.EditBlockName(ctx, block, lane, newName)
}

// DeleteBlockByID removes a block addressed by its stable ID.
func (b *Board) DeleteBlockByID(ctx context.Context, blockID string) (Outcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	lane, block, err := b.locate(blockID)
	if err != nil {
		return Outcome{}, err
	}
	return b.runtime.DeleteBlock(ctx, block, lane)
}

func (b *Board) locate(blockID string) (int, int, error) {
	lane, block, ok := b.runtime.Locate(blockID)
	if !ok {
		return 0, 0, fmt.Errorf("%w: unknown block id %q", domain.ErrInvalidBlock, blockID)
	}
	return lane, block, nil
}

// Denied reports whether err is a rule denial and returns its details.
func Denied(err error) (*domain.MoveDeniedError, bool) {
	var denied *domain.MoveDeniedError
	if errors.As(err, &denied) {
		return denied, true
	}
	return nil, false
}
