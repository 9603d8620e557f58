package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/swimlane"
	"github.com/aretw0/swimlane/internal/logging"
	"github.com/aretw0/swimlane/pkg/domain"
	"github.com/aretw0/swimlane/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can hold a distributed lock.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager hands out boards by key, one caller at a time per key.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.StateStore

	mu     sync.Mutex // guards locks and boards
	locks  map[string]*lockEntry
	boards map[string]*swimlane.Board

	locker    ports.DistributedLocker
	lockTTL   time.Duration
	boardOpts []swimlane.Option
	logger    *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithBoardOptions are applied to every board the manager opens.
// Store and key are always set by the manager.
func WithBoardOptions(opts ...swimlane.Option) Option {
	return func(m *Manager) {
		m.boardOpts = append(m.boardOpts, opts...)
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager over the given store.
func NewManager(store ports.StateStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		boards:  make(map[string]*swimlane.Board),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(key) after unlocking.
func (m *Manager) acquire(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count. The last holder drops both the
// lock entry and the cached board, so the next caller reads from the store.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
		delete(m.boards, key)
	}
}

// board returns the cached board for key, opening it on first use.
// The second result reports whether the board came from the cache.
func (m *Manager) board(ctx context.Context, key string) (*swimlane.Board, bool, error) {
	m.mu.Lock()
	b, ok := m.boards[key]
	m.mu.Unlock()
	if ok {
		return b, true, nil
	}

	opts := append([]swimlane.Option{}, m.boardOpts...)
	opts = append(opts, swimlane.WithStore(m.store), swimlane.WithKey(key))
	b, err := swimlane.Open(ctx, opts...)
	if err != nil {
		return nil, false, err
	}

	m.mu.Lock()
	m.boards[key] = b
	m.mu.Unlock()
	return b, false, nil
}

// Do runs fn with exclusive access to the board stored under key.
// A board that does not exist yet starts as the default three-lane board.
// Store read faults fail the call instead of handing fn an empty board.
func (m *Manager) Do(ctx context.Context, key string, fn func(context.Context, *swimlane.Board) error) error {
	return m.withLock(ctx, key, func(ctx context.Context) error {
		b, cached, err := m.board(ctx, key)
		if err != nil {
			return err
		}
		if cached && m.locker != nil {
			if err := b.Reload(ctx); err != nil {
				return err
			}
		}
		return fn(ctx, b)
	})
}

// View returns a snapshot of the board stored under key.
func (m *Manager) View(ctx context.Context, key string) (*domain.BoardState, error) {
	var state *domain.BoardState
	err := m.Do(ctx, key, func(ctx context.Context, b *swimlane.Board) error {
		state = b.State()
		return nil
	})
	return state, err
}

// Delete removes the board from the store and forgets the cached copy.
func (m *Manager) Delete(ctx context.Context, key string) error {
	return m.withLock(ctx, key, func(ctx context.Context) error {
		m.mu.Lock()
		delete(m.boards, key)
		m.mu.Unlock()
		return m.store.Delete(ctx, key)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

func (m *Manager) withLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := m.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(key)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, key, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"board", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
