package persistence

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/swimlane/internal/logging"
	"github.com/aretw0/swimlane/pkg/domain"
	"github.com/aretw0/swimlane/pkg/ports"
)

// DefaultKey is the slot the board lives in unless configured otherwise.
const DefaultKey = "lanesState"

// Op names the persistence operation a fault happened in.
type Op string

const (
	OpLoad Op = "load"
	OpSave Op = "save"
)

// FaultObserver is told about every swallowed persistence fault.
type FaultObserver func(op Op, err error)

// Adapter reads and writes one board slot. Load and Save never propagate
// faults: Load falls back to domain.DefaultState and Save only logs, because
// the in-memory mutation already succeeded by the time Save runs. Fetch is
// the strict read for callers that already hold a board.
type Adapter struct {
	store   ports.StateStore
	key     string
	logger  *slog.Logger
	onFault FaultObserver
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithKey sets the slot key.
func WithKey(key string) Option {
	return func(a *Adapter) {
		if key != "" {
			a.key = key
		}
	}
}

// WithLogger sets the logger faults are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithFaultObserver registers a callback for swallowed faults (e.g. a metrics counter).
func WithFaultObserver(fn FaultObserver) Option {
	return func(a *Adapter) {
		a.onFault = fn
	}
}

// NewAdapter creates an adapter over store.
func NewAdapter(store ports.StateStore, opts ...Option) *Adapter {
	a := &Adapter{
		store:  store,
		key:    DefaultKey,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Key returns the slot key.
func (a *Adapter) Key() string {
	return a.key
}

// ErrSealed is returned when the slot holds an encrypted envelope and the
// store was opened without the encryption middleware.
var ErrSealed = errors.New("board is encrypted; configure an encryption key")

// Load returns the stored board, or the default three-lane board when the
// slot is empty or unreadable.
func (a *Adapter) Load(ctx context.Context) *domain.BoardState {
	state, err := a.Fetch(ctx)
	if err != nil {
		a.fault(OpLoad, err)
		return domain.DefaultState()
	}
	return state
}

// Fetch is Load without the fallback: a missing slot still yields the default
// board, but read faults are returned so callers can keep what they have.
func (a *Adapter) Fetch(ctx context.Context) (*domain.BoardState, error) {
	state, err := a.store.Load(ctx, a.key)
	if err != nil {
		if errors.Is(err, domain.ErrBoardNotFound) {
			a.logger.Debug("no saved board, starting from default", "key", a.key)
			return domain.DefaultState(), nil
		}
		return nil, err
	}
	if state == nil {
		return domain.DefaultState(), nil
	}
	if state.Sealed != "" {
		return nil, ErrSealed
	}
	state.Normalize()
	return state, nil
}

// Save writes the full board to the slot. Faults are logged, never returned.
func (a *Adapter) Save(ctx context.Context, state *domain.BoardState) {
	if err := a.store.Save(ctx, a.key, state); err != nil {
		a.fault(OpSave, err)
	}
}

// Hook returns the post-mutation observer that saves every snapshot.
func (a *Adapter) Hook() domain.Hooks {
	return domain.Hooks{
		OnMutation: func(ctx context.Context, e *domain.MutationEvent) {
			a.Save(ctx, e.State)
		},
	}
}

func (a *Adapter) fault(op Op, err error) {
	a.logger.Error("could not "+string(op)+" board", "key", a.key, "err", err)
	if a.onFault != nil {
		a.onFault(op, err)
	}
}
