package persistence_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/swimlane/internal/logging"
	"github.com/aretw0/swimlane/pkg/adapters/memory"
	"github.com/aretw0/swimlane/pkg/domain"
	"github.com/aretw0/swimlane/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var block0Time = time.Date(2023, 11, 5, 8, 0, 0, 0, time.UTC)

// faultyStore fails every call with err.
type faultyStore struct{ err error }

func (s faultyStore) Save(context.Context, string, *domain.BoardState) error { return s.err }
func (s faultyStore) Load(context.Context, string) (*domain.BoardState, error) {
	return nil, s.err
}
func (s faultyStore) Delete(context.Context, string) error { return s.err }
func (s faultyStore) List(context.Context) ([]string, error) {
	return nil, s.err
}

func TestAdapter_LoadMissingReturnsDefault(t *testing.T) {
	var faults []persistence.Op
	adapter := persistence.NewAdapter(memory.NewStore(), persistence.WithFaultObserver(func(op persistence.Op, _ error) {
		faults = append(faults, op)
	}))

	state := adapter.Load(context.Background())

	require.Len(t, state.Lanes, 3)
	assert.Equal(t, "Lane 1", state.Lanes[0].Name)
	assert.Empty(t, state.Rules)
	assert.Empty(t, faults, "a missing slot is not a fault")
}

func TestAdapter_LoadFaultReturnsDefault(t *testing.T) {
	var buf bytes.Buffer
	var faults []persistence.Op
	adapter := persistence.NewAdapter(
		faultyStore{err: errors.New("unexpected end of JSON input")},
		persistence.WithLogger(logging.NewWithWriter(&buf, slog.LevelInfo)),
		persistence.WithFaultObserver(func(op persistence.Op, _ error) { faults = append(faults, op) }),
	)

	state := adapter.Load(context.Background())

	assert.Equal(t, 3, state.LaneCount())
	assert.Equal(t, []persistence.Op{persistence.OpLoad}, faults)
	assert.Contains(t, buf.String(), "could not load board")
}

func TestAdapter_SaveFaultIsSwallowed(t *testing.T) {
	var faults []persistence.Op
	adapter := persistence.NewAdapter(
		faultyStore{err: errors.New("quota exceeded")},
		persistence.WithFaultObserver(func(op persistence.Op, _ error) { faults = append(faults, op) }),
	)

	assert.NotPanics(t, func() { adapter.Save(context.Background(), domain.DefaultState()) })
	assert.Equal(t, []persistence.Op{persistence.OpSave}, faults)
}

func TestAdapter_SaveThenLoadRoundTrips(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	adapter := persistence.NewAdapter(store, persistence.WithKey("team-board"))

	state := domain.DefaultState()
	block := domain.NewBlock("ship it")
	block.Record(domain.HistoryMovement, domain.MovedDetail("Lane 1", "Lane 2"), block0Time)
	state.Lanes[1].Items = append(state.Lanes[1].Items, block)
	state.Rules = append(state.Rules, domain.NewRule(2, 3, domain.RuleDeny))

	adapter.Save(ctx, state)
	loaded := adapter.Load(ctx)

	assert.Equal(t, state, loaded)
	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"team-board"}, keys)
}

func TestAdapter_HookSavesSnapshots(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	adapter := persistence.NewAdapter(store)

	state := domain.DefaultState()
	state.Lanes[0].Name = "Inbox"
	adapter.Hook().OnMutation(ctx, &domain.MutationEvent{Op: domain.OpAddBlock, State: state})

	loaded, err := store.Load(ctx, persistence.DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, "Inbox", loaded.Lanes[0].Name)
}

func TestAdapter_FetchReturnsFaults(t *testing.T) {
	ctx := context.Background()
	var faults []persistence.Op
	boom := errors.New("i/o timeout")
	adapter := persistence.NewAdapter(faultyStore{err: boom},
		persistence.WithFaultObserver(func(op persistence.Op, _ error) { faults = append(faults, op) }),
	)

	state, err := adapter.Fetch(ctx)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, state)
	assert.Empty(t, faults, "the caller decides what a strict read fault means")

	state, err = persistence.NewAdapter(memory.NewStore()).Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, state.LaneCount(), "a missing slot is still the default board")
}

func TestAdapter_SealedBoardWithoutKey(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Save(ctx, persistence.DefaultKey, &domain.BoardState{Sealed: "c2VjcmV0"}))

	var faults []persistence.Op
	adapter := persistence.NewAdapter(store,
		persistence.WithFaultObserver(func(op persistence.Op, _ error) { faults = append(faults, op) }),
	)

	_, err := adapter.Fetch(ctx)
	assert.ErrorIs(t, err, persistence.ErrSealed)

	state := adapter.Load(ctx)
	assert.Equal(t, 3, state.LaneCount(), "an envelope must not load as a board without lanes")
	assert.Equal(t, []persistence.Op{persistence.OpLoad}, faults)
}
