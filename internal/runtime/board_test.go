package runtime_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/swimlane/internal/runtime"
	"github.com/aretw0/swimlane/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// newBoard builds a board whose lanes hold the given block names.
func newBoard(t *testing.T, lanes [][]string, opts ...runtime.BoardOption) *runtime.Board {
	t.Helper()
	state := domain.DefaultState()
	for i, names := range lanes {
		for _, n := range names {
			state.Lanes[i].Items = append(state.Lanes[i].Items, domain.NewBlock(n))
		}
	}
	opts = append([]runtime.BoardOption{runtime.WithClock(fixedClock)}, opts...)
	return runtime.NewBoard(state, opts...)
}

func names(lane domain.Lane) []string {
	out := make([]string, 0, len(lane.Items))
	for _, b := range lane.Items {
		out = append(out, b.Name)
	}
	return out
}

func TestBoard_AddBlock(t *testing.T) {
	ctx := context.Background()
	board := newBoard(t, [][]string{{"a"}, {"b"}, {}})

	out, err := board.AddBlock(ctx, 1, "new")
	require.NoError(t, err)
	assert.True(t, out.Changed)

	state := board.State()
	assert.Equal(t, []string{"a"}, names(state.Lanes[0]))
	assert.Equal(t, []string{"b", "new"}, names(state.Lanes[1]))
	assert.Empty(t, state.Lanes[2].Items)
	assert.Empty(t, state.Lanes[1].Items[1].History)
	assert.NotEmpty(t, state.Lanes[1].Items[1].ID)
}

func TestBoard_AddBlock_BlankNameIsNoop(t *testing.T) {
	mutations := 0
	board := newBoard(t, nil, runtime.WithHooks(domain.Hooks{
		OnMutation: func(context.Context, *domain.MutationEvent) { mutations++ },
	}))

	for _, name := range []string{"", "   ", "\t\n"} {
		out, err := board.AddBlock(context.Background(), 0, name)
		require.NoError(t, err)
		assert.False(t, out.Changed)
	}
	assert.Equal(t, 0, board.State().BlockCount())
	assert.Zero(t, mutations, "no-op must not trigger persistence")
}

func TestBoard_AddBlock_InvalidLane(t *testing.T) {
	board := newBoard(t, nil)

	for _, idx := range []int{-1, 3, 42} {
		_, err := board.AddBlock(context.Background(), idx, "x")
		assert.ErrorIs(t, err, domain.ErrInvalidLane)
	}
}

func TestBoard_DeleteBlock(t *testing.T) {
	ctx := context.Background()
	board := newBoard(t, [][]string{{"a", "b", "c"}})
	_, err := board.EditBlockName(ctx, 1, 0, "b2")
	require.NoError(t, err)
	deletedID := board.State().Lanes[0].Items[1].ID

	_, err = board.DeleteBlock(ctx, 1, 0)
	require.NoError(t, err)

	state := board.State()
	assert.Equal(t, []string{"a", "c"}, names(state.Lanes[0]))
	_, _, found := state.Locate(deletedID)
	assert.False(t, found)
	for _, b := range state.Lanes[0].Items {
		assert.Empty(t, b.History, "siblings keep their own history")
	}
}

func TestBoard_DeleteBlock_InvalidIndices(t *testing.T) {
	board := newBoard(t, [][]string{{"a"}})

	_, err := board.DeleteBlock(context.Background(), 0, 7)
	assert.ErrorIs(t, err, domain.ErrInvalidLane)

	_, err = board.DeleteBlock(context.Background(), 1, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidBlock)

	var idxErr *domain.IndexError
	require.ErrorAs(t, err, &idxErr)
	assert.Equal(t, 1, idxErr.Index)
	assert.Equal(t, 1, idxErr.Len)
	assert.Equal(t, 1, board.State().BlockCount())
}

func TestBoard_MoveBlock_AcrossLanes(t *testing.T) {
	ctx := context.Background()
	board := newBoard(t, [][]string{{"a", "b"}, {"c"}, {}})

	out, err := board.MoveBlock(ctx, 0, 0, 1, 0)
	require.NoError(t, err)
	assert.True(t, out.Changed)

	state := board.State()
	assert.Equal(t, []string{"b"}, names(state.Lanes[0]))
	assert.Equal(t, []string{"c", "a"}, names(state.Lanes[1]), "cross-lane moves append to the end")
	assert.Equal(t, 3, state.BlockCount())

	moved := state.Lanes[1].Items[1]
	require.Len(t, moved.History, 1)
	assert.Equal(t, domain.HistoryMovement, moved.History[0].Action)
	assert.Equal(t, "Moved from Lane 1 to Lane 2", moved.History[0].Detail)
	assert.Equal(t, fixedNow, moved.History[0].Timestamp)
}

func TestBoard_MoveBlock_KeepsHistoryAcrossLanes(t *testing.T) {
	ctx := context.Background()
	board := newBoard(t, [][]string{{"a"}})

	_, err := board.EditBlockName(ctx, 0, 0, "a2")
	require.NoError(t, err)
	_, err = board.MoveBlock(ctx, 0, 0, 2, -1)
	require.NoError(t, err)
	_, err = board.MoveBlock(ctx, 0, 2, 1, -1)
	require.NoError(t, err)

	block := board.State().Lanes[1].Items[0]
	require.Len(t, block.History, 3)
	assert.Equal(t, "Changed from a to a2", block.History[0].Detail)
	assert.Equal(t, "Moved from Lane 1 to Lane 3", block.History[1].Detail)
	assert.Equal(t, "Moved from Lane 3 to Lane 2", block.History[2].Detail)
}

func TestBoard_MoveBlock_DenyRule(t *testing.T) {
	ctx := context.Background()
	var denials []*domain.DenialEvent
	mutations := 0
	board := newBoard(t, [][]string{{"a"}, {}}, runtime.WithHooks(domain.Hooks{
		OnMutation:   func(context.Context, *domain.MutationEvent) { mutations++ },
		OnMoveDenied: func(_ context.Context, e *domain.DenialEvent) { denials = append(denials, e) },
	}))
	_, err := board.AddRule(ctx, domain.Rule{From: "1", To: "2", Action: domain.RuleDeny})
	require.NoError(t, err)
	before := board.State()
	mutations = 0

	out, err := board.MoveBlock(ctx, 0, 0, 1, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMoveDenied))
	assert.False(t, out.Changed)

	var denied *domain.MoveDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "Lane 1", denied.FromLane)
	assert.Equal(t, "Lane 2", denied.ToLane)
	assert.Equal(t, 1, denied.From)
	assert.Equal(t, 2, denied.To)

	assert.Equal(t, before, board.State(), "denied move leaves state unchanged")
	assert.Zero(t, mutations)
	require.Len(t, denials, 1)
	assert.Equal(t, before.Lanes[0].Items[0].ID, denials[0].BlockID)

	// Other directions are unaffected.
	_, err = board.MoveBlock(ctx, 0, 0, 2, 0)
	assert.NoError(t, err)
}

func TestBoard_MoveBlock_AllowRuleAndFirstMatch(t *testing.T) {
	ctx := context.Background()
	board := newBoard(t, [][]string{{"a"}, {}})
	_, err := board.AddRule(ctx, domain.NewRule(1, 2, domain.RuleAllow))
	require.NoError(t, err)
	_, err = board.AddRule(ctx, domain.NewRule(1, 2, domain.RuleDeny))
	require.NoError(t, err)

	_, err = board.MoveBlock(ctx, 0, 0, 1, 0)
	require.NoError(t, err)
	assert.Len(t, board.State().Lanes[1].Items, 1)
}

func TestBoard_MoveBlock_InvalidIndices(t *testing.T) {
	ctx := context.Background()
	board := newBoard(t, [][]string{{"a"}})

	_, err := board.MoveBlock(ctx, 0, 0, 3, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidLane)
	_, err = board.MoveBlock(ctx, 0, -1, 0, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidLane)
	_, err = board.MoveBlock(ctx, 5, 0, 1, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidBlock)

	assert.Equal(t, []string{"a"}, names(board.State().Lanes[0]))
}

func TestBoard_MoveBlock_Reorder(t *testing.T) {
	ctx := context.Background()
	board := newBoard(t, [][]string{{"a", "b", "c"}})

	_, err := board.MoveBlock(ctx, 0, 0, 0, 2)
	require.NoError(t, err)

	state := board.State()
	assert.Equal(t, []string{"b", "c", "a"}, names(state.Lanes[0]))
	moved := state.Lanes[0].Items[2]
	require.Len(t, moved.History, 1)
	assert.Equal(t, domain.HistoryMovement, moved.History[0].Action)
	assert.Equal(t, "Reordered from position 1 to position 3 in Lane 1", moved.History[0].Detail)
}

func TestBoard_MoveBlock_ReorderClampsTarget(t *testing.T) {
	ctx := context.Background()
	board := newBoard(t, [][]string{{"a", "b", "c"}})

	_, err := board.MoveBlock(ctx, 1, 0, 0, 99)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, names(board.State().Lanes[0]))

	_, err = board.MoveBlock(ctx, 2, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, names(board.State().Lanes[0]))
}

func TestBoard_MoveBlock_ReorderSingleItem(t *testing.T) {
	ctx := context.Background()

	t.Run("WhenCrowded", func(t *testing.T) {
		board := newBoard(t, [][]string{{"solo"}})
		out, err := board.MoveBlock(ctx, 0, 0, 0, 0)
		require.NoError(t, err)
		assert.True(t, out.Changed)
		assert.Empty(t, board.State().Lanes[0].Items[0].History)
	})

	t.Run("Always", func(t *testing.T) {
		board := newBoard(t, [][]string{{"solo"}}, runtime.WithReorderPolicy(runtime.ReorderAlways))
		_, err := board.MoveBlock(ctx, 0, 0, 0, 0)
		require.NoError(t, err)
		assert.Len(t, board.State().Lanes[0].Items[0].History, 1)
	})
}

func TestBoard_MoveBlock_ReorderIgnoresRules(t *testing.T) {
	ctx := context.Background()
	board := newBoard(t, [][]string{{"a", "b"}})
	_, err := board.AddRule(ctx, domain.NewRule(1, 1, domain.RuleDeny))
	require.NoError(t, err)

	_, err = board.MoveBlock(ctx, 0, 0, 0, 1)
	assert.NoError(t, err)
}

func TestBoard_EditBlockName(t *testing.T) {
	ctx := context.Background()
	board := newBoard(t, [][]string{{"Y"}})

	_, err := board.EditBlockName(ctx, 0, 0, "X")
	require.NoError(t, err)

	block := board.State().Lanes[0].Items[0]
	assert.Equal(t, "X", block.Name)
	require.Len(t, block.History, 1)
	assert.Equal(t, domain.HistoryEntry{
		Action:    domain.HistoryEdit,
		Detail:    "Changed from Y to X",
		Timestamp: fixedNow,
	}, block.History[0])

	// Same name still records.
	_, err = board.EditBlockName(ctx, 0, 0, "X")
	require.NoError(t, err)
	assert.Len(t, board.State().Lanes[0].Items[0].History, 2)

	_, err = board.EditBlockName(ctx, 3, 0, "Z")
	assert.ErrorIs(t, err, domain.ErrInvalidBlock)
	_, err = board.EditBlockName(ctx, 0, 9, "Z")
	assert.ErrorIs(t, err, domain.ErrInvalidLane)
}

func TestBoard_Rules(t *testing.T) {
	ctx := context.Background()
	board := newBoard(t, nil)

	_, err := board.AddRule(ctx, domain.NewRule(7, 8, domain.RuleDeny))
	require.NoError(t, err, "dangling rules are tolerated")
	_, err = board.AddRule(ctx, domain.NewRule(7, 8, domain.RuleDeny))
	require.NoError(t, err, "duplicates are tolerated")
	assert.Len(t, board.State().Rules, 2)

	_, err = board.AddRule(ctx, domain.Rule{From: "1", To: "2", Action: "maybe"})
	assert.ErrorIs(t, err, domain.ErrInvalidRule)

	out, err := board.DeleteRule(ctx, 5)
	require.NoError(t, err)
	assert.False(t, out.Changed)

	out, err = board.DeleteRule(ctx, 0)
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Len(t, board.State().Rules, 1)
}

func TestBoard_HooksReceiveSnapshots(t *testing.T) {
	ctx := context.Background()
	var events []*domain.MutationEvent
	board := newBoard(t, nil, runtime.WithHooks(domain.Hooks{
		OnMutation: func(_ context.Context, e *domain.MutationEvent) { events = append(events, e) },
	}))

	_, err := board.AddBlock(ctx, 0, "a")
	require.NoError(t, err)
	_, err = board.AddRule(ctx, domain.NewRule(1, 2, domain.RuleAllow))
	require.NoError(t, err)
	_, err = board.DeleteRule(ctx, 0)
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, domain.OpAddBlock, events[0].Op)
	assert.Equal(t, domain.OpAddRule, events[1].Op)
	assert.Equal(t, domain.OpDeleteRule, events[2].Op)
	assert.Len(t, events[1].State.Rules, 1, "snapshot is frozen at mutation time")
	assert.Empty(t, events[2].State.Rules)
}

func TestBoard_StateIsACopy(t *testing.T) {
	board := newBoard(t, [][]string{{"a"}})

	s := board.State()
	s.Lanes[0].Items[0].Name = "hacked"
	s.Lanes = nil

	assert.Equal(t, "a", board.State().Lanes[0].Items[0].Name)
}

func TestBoard_LocateAfterMoves(t *testing.T) {
	ctx := context.Background()
	board := newBoard(t, [][]string{{"a", "b"}})
	id := board.State().Lanes[0].Items[1].ID

	_, err := board.DeleteBlock(ctx, 0, 0)
	require.NoError(t, err)
	_, err = board.MoveBlock(ctx, 0, 0, 2, -1)
	require.NoError(t, err)

	lane, block, ok := board.Locate(id)
	require.True(t, ok)
	assert.Equal(t, 2, lane)
	assert.Equal(t, 0, block)
}
