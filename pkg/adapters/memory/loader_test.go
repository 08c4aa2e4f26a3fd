package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/omnibot/pkg/adapters/memory"
	"github.com/aretw0/omnibot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_ActiveFlow(t *testing.T) {
	ctx := context.Background()

	v1 := &domain.FlowDefinition{ID: "v1", Active: true}
	v2 := &domain.FlowDefinition{ID: "v2"}

	loader, err := memory.NewLoader(v1, v2)
	require.NoError(t, err)

	active, err := loader.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v1", active.ID)

	require.NoError(t, loader.Activate("v2"))
	active, err = loader.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v2", active.ID)

	// Old flow remains reachable for running conversations.
	old, err := loader.Flow(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, "v1", old.ID)

	assert.ErrorIs(t, loader.Activate("missing"), domain.ErrFlowNotFound)
	_, err = loader.Flow(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)
}

func TestLoader_NoActive(t *testing.T) {
	loader, err := memory.NewLoader(&domain.FlowDefinition{ID: "draft"})
	require.NoError(t, err)

	_, err = loader.Active(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoActiveFlow)

	_, err = memory.NewLoader(&domain.FlowDefinition{})
	assert.Error(t, err)
}

func TestLoader_RejectsBrokenEdges(t *testing.T) {
	broken := &domain.FlowDefinition{
		ID:     "broken",
		Active: true,
		Nodes:  []domain.FlowNode{domain.NewNode("hi", domain.SendMessage{Message: "Olá"})},
		Edges:  []domain.FlowEdge{{Source: "hi", Target: "ghost"}},
	}

	_, err := memory.NewLoader(broken)
	var fve *domain.FlowValidationError
	require.ErrorAs(t, err, &fve)
	assert.Contains(t, fve.Problems, `edge 0 (hi) references missing target "ghost"`)

	loader, err := memory.NewLoader()
	require.NoError(t, err)
	assert.Error(t, loader.Register(broken))
	_, err = loader.Flow(context.Background(), "broken")
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)

	// Dead ends are structurally sound; evaluation hands them off.
	deadEnd := &domain.FlowDefinition{
		ID:    "dead-end",
		Nodes: []domain.FlowNode{domain.NewNode("hi", domain.SendMessage{Message: "Olá"})},
	}
	assert.NoError(t, loader.Register(deadEnd))
}

func TestCatalog_Lookup(t *testing.T) {
	ctx := context.Background()
	catalog := memory.NewCatalog(
		domain.WriteAction{ID: "wa-1", Name: "update_email", Active: true},
		domain.WriteAction{ID: "wa-2", Name: "disabled", Active: false},
	)

	byID, err := catalog.WriteAction(ctx, "wa-1")
	require.NoError(t, err)
	assert.Equal(t, "update_email", byID.Name)

	byName, err := catalog.WriteAction(ctx, "update_email")
	require.NoError(t, err)
	assert.Equal(t, "wa-1", byName.ID)

	_, err = catalog.WriteAction(ctx, "disabled")
	assert.ErrorIs(t, err, domain.ErrWriteActionNotFound)

	_, err = catalog.WriteAction(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrWriteActionNotFound)

	catalog.Put(domain.WriteAction{ID: "wa-2", Name: "disabled", Active: true})
	_, err = catalog.WriteAction(ctx, "wa-2")
	assert.NoError(t, err)
	assert.Len(t, catalog.List(), 2)
}
