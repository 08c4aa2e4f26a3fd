package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/omnibot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunExecutionStoreContract runs a suite of tests to verify that an ExecutionStore implementation
// adheres to the defined interface contract.
func RunExecutionStoreContract(t *testing.T, store ExecutionStore) {
	ctx := context.Background()
	convID := "contract-conv-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		exec := domain.NewExecution(convID, "flow-1", "start")
		exec.Variables["cpf"] = "11111111111"
		exec.AwaitingInput = true
		exec.InputType = domain.InputCPF

		require.NoError(t, store.Save(ctx, convID, exec), "Save should not return error")

		loaded, err := store.Load(ctx, convID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "start", loaded.CurrentNodeID)
		assert.Equal(t, "flow-1", loaded.FlowID)
		assert.Equal(t, domain.StatusBotActive, loaded.Status)
		assert.True(t, loaded.AwaitingInput)
		assert.Equal(t, domain.InputCPF, loaded.InputType)
		assert.Equal(t, "11111111111", loaded.Variables["cpf"])
	})

	t.Run("Load returns a copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, convID)
		require.NoError(t, err)
		loaded.Variables["cpf"] = "mutated"

		again, err := store.Load(ctx, convID)
		require.NoError(t, err)
		assert.Equal(t, "11111111111", again.Variables["cpf"])
	})

	t.Run("Last write wins", func(t *testing.T) {
		exec := domain.NewExecution(convID, "flow-1", "start")
		exec.CurrentNodeID = "menu"
		require.NoError(t, store.Save(ctx, convID, exec))

		loaded, err := store.Load(ctx, convID)
		require.NoError(t, err)
		assert.Equal(t, "menu", loaded.CurrentNodeID)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+convID)
		assert.ErrorIs(t, err, domain.ErrExecutionNotFound)
	})

	t.Run("Variables upsert", func(t *testing.T) {
		varConv := convID + "-vars"
		defer func() { _ = store.Delete(ctx, varConv) }()

		vars, err := store.Variables(ctx, varConv)
		require.NoError(t, err)
		assert.Empty(t, vars)

		require.NoError(t, store.AppendVariable(ctx, varConv, "email", "a@b.co"))
		require.NoError(t, store.AppendVariable(ctx, varConv, "email", "c@d.co"))
		require.NoError(t, store.AppendVariable(ctx, varConv, "cpf", "22222222222"))

		vars, err = store.Variables(ctx, varConv)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"email": "c@d.co", "cpf": "22222222222"}, vars)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, convID, domain.NewExecution(convID, "flow-1", "start")))
		require.NoError(t, store.AppendVariable(ctx, convID, "name", "Maria"))

		require.NoError(t, store.Delete(ctx, convID), "Delete should not return error")

		_, err := store.Load(ctx, convID)
		assert.ErrorIs(t, err, domain.ErrExecutionNotFound, "Load after Delete should return ErrExecutionNotFound")

		vars, err := store.Variables(ctx, convID)
		require.NoError(t, err)
		assert.Empty(t, vars, "Delete should drop variables")
	})

	t.Run("Ids do not reach other conversations", func(t *testing.T) {
		owner := convID + "-x"
		others := []string{"index", "meta:index", owner + ":vars", "vars:" + owner, owner + ".vars"}
		defer func() {
			_ = store.Delete(ctx, owner)
			for _, id := range others {
				_ = store.Delete(ctx, id)
			}
		}()

		require.NoError(t, store.Save(ctx, owner, domain.NewExecution(owner, "flow-1", "start")))
		require.NoError(t, store.AppendVariable(ctx, owner, "cpf", "11111111111"))

		for _, id := range others {
			exec := domain.NewExecution(id, "flow-1", "other")
			exec.Variables["cpf"] = "99999999999"
			require.NoError(t, store.Save(ctx, id, exec), "Save %q", id)
		}

		loaded, err := store.Load(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, "start", loaded.CurrentNodeID)

		vars, err := store.Variables(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"cpf": "11111111111"}, vars)

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, owner)
		for _, id := range others {
			assert.Contains(t, ids, id)
		}
	})

	t.Run("List", func(t *testing.T) {
		id1 := convID + "-1"
		id2 := convID + "-2"
		_ = store.Save(ctx, id1, domain.NewExecution(id1, "flow-1", "start"))
		_ = store.Save(ctx, id2, domain.NewExecution(id2, "flow-1", "start"))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
