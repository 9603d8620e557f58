package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/swimlane/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	key := "contract-test-board-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.DefaultState()
		block := domain.NewBlock("write contract")
		block.Record(domain.HistoryEdit, domain.ChangedDetail("draft", "write contract"), time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
		state.Lanes[1].Items = append(state.Lanes[1].Items, block)
		state.Rules = append(state.Rules, domain.NewRule(1, 3, domain.RuleDeny))

		err := store.Save(ctx, key, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state, loaded, "round trip should be observably identical")
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		first := domain.DefaultState()
		second := domain.DefaultState()
		second.Lanes[0].Name = "Backlog"

		require.NoError(t, store.Save(ctx, key, first))
		require.NoError(t, store.Save(ctx, key, second))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "Backlog", loaded.Lanes[0].Name)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrBoardNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, key, domain.DefaultState())
		require.NoError(t, err)

		err = store.Delete(ctx, key)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrBoardNotFound, "Load after Delete should return ErrBoardNotFound")

		assert.NoError(t, store.Delete(ctx, key), "Deleting a missing key is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := key + "-1"
		id2 := key + "-2"
		_ = store.Save(ctx, id1, domain.DefaultState())
		_ = store.Save(ctx, id2, domain.DefaultState())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, id1)
		assert.Contains(t, keys, id2)
	})
}
