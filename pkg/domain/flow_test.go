package domain_test

import (
	"testing"

	"github.com/aretw0/omnibot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlowDefinition_StartNode(t *testing.T) {
	t.Run("node without incoming edges", func(t *testing.T) {
		flow := domain.FlowDefinition{
			Nodes: []domain.FlowNode{
				domain.NewNode("menu", domain.MenuButtons{Message: "Escolha", Buttons: []string{"A"}}),
				domain.NewNode("welcome", domain.SendMessage{Message: "Olá"}),
			},
			Edges: []domain.FlowEdge{{Source: "welcome", Target: "menu"}},
		}
		start, ok := flow.StartNode()
		require.True(t, ok)
		assert.Equal(t, "welcome", start.ID)
	})

	t.Run("cycle falls back to first node", func(t *testing.T) {
		flow := domain.FlowDefinition{
			Nodes: []domain.FlowNode{
				domain.NewNode("a", domain.SendMessage{Message: "a"}),
				domain.NewNode("b", domain.SendMessage{Message: "b"}),
			},
			Edges: []domain.FlowEdge{{Source: "a", Target: "b"}, {Source: "b", Target: "a"}},
		}
		start, ok := flow.StartNode()
		require.True(t, ok)
		assert.Equal(t, "a", start.ID)
	})

	t.Run("empty flow", func(t *testing.T) {
		_, ok := (&domain.FlowDefinition{}).StartNode()
		assert.False(t, ok)
	})
}

func TestFlowNode_Validate(t *testing.T) {
	assert.NoError(t, domain.NewNode("t", domain.Transfer{Queue: "x"}).Validate())

	mismatched := domain.FlowNode{ID: "m", Kind: domain.KindMenuButtons, Data: domain.SendMessage{Message: "oi"}}
	assert.Error(t, mismatched.Validate())

	assert.Error(t, domain.FlowNode{ID: "empty", Kind: domain.KindTransfer}.Validate())
}

func TestFlowEdge_HandleIndex(t *testing.T) {
	cases := map[string]struct {
		handle string
		want   int
		ok     bool
	}{
		"plain":    {"1", 1, true},
		"button":   {"button-2", 2, true},
		"btn":      {"btn_0", 0, true},
		"empty":    {"", 0, false},
		"named":    {"yes", 0, false},
		"negative": {"-1", 0, false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := domain.FlowEdge{SourceHandle: tc.handle}.HandleIndex()
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFlowExecution_Snapshot(t *testing.T) {
	exec := domain.NewExecution("c1", "demo", "start")
	exec.Variables["cpf"] = "111"

	snap := exec.Snapshot()
	snap.Variables["cpf"] = "222"
	snap.History = append(snap.History, "next")

	assert.Equal(t, "111", exec.Variables["cpf"])
	assert.Equal(t, []string{"start"}, exec.History)
}

func TestSystemMessages_Merge(t *testing.T) {
	custom := domain.SystemMessages{Transfer: "Já te transfiro"}
	merged := custom.Merge(domain.DefaultSystemMessages())
	assert.Equal(t, "Já te transfiro", merged.Transfer)
	assert.Equal(t, domain.DefaultSystemMessages().BotError, merged.BotError)
}
