package validator

import (
	"testing"

	"github.com/aretw0/omnibot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFlow() *domain.FlowDefinition {
	return &domain.FlowDefinition{
		ID: "ok",
		Nodes: []domain.FlowNode{
			domain.NewNode("start", domain.SendMessage{Message: "Olá"}),
			domain.NewNode("menu", domain.MenuButtons{Message: "?", Buttons: []string{"Consultar fatura", "Falar com atendente"}}),
			domain.NewNode("cpf", domain.CollectInfo{UserMessage: "CPF?", ValidationType: domain.InputCPF, VariableName: "cpf"}),
			domain.NewNode("query", domain.Integration{Action: "buscar_fatura_cpf", Input: "cpf"}),
			domain.NewNode("human", domain.Transfer{Queue: "atendimento"}),
		},
		Edges: []domain.FlowEdge{
			{Source: "start", Target: "menu"},
			{Source: "menu", Target: "cpf", SourceHandle: "0"},
			{Source: "menu", Target: "human", SourceHandle: "1"},
			{Source: "cpf", Target: "query"},
			{Source: "query", Target: "menu"},
		},
	}
}

func problemsOf(t *testing.T, err error) []string {
	t.Helper()
	var fve *domain.FlowValidationError
	require.ErrorAs(t, err, &fve)
	return fve.Problems
}

func TestValidateFlow_Valid(t *testing.T) {
	assert.NoError(t, ValidateFlow(validFlow()))
}

func TestValidateFlow_DeadEnd(t *testing.T) {
	flow := validFlow()
	flow.Edges = flow.Edges[:4] // query loses its edge back to the menu

	problems := problemsOf(t, ValidateFlow(flow))
	assert.Contains(t, problems, "node query is a dead end (no outgoing edge and not a transfer)")
	assert.Equal(t, []string{"query"}, DeadEnds(flow))
}

func TestValidateFlow_BrokenEdge(t *testing.T) {
	flow := validFlow()
	flow.Edges = append(flow.Edges, domain.FlowEdge{Source: "start", Target: "ghost"})

	problems := problemsOf(t, ValidateFlow(flow))
	assert.Contains(t, problems, `edge 5 (start) references missing target "ghost"`)
}

func TestValidateStructure(t *testing.T) {
	flow := validFlow()
	flow.Edges = flow.Edges[:4]
	assert.NoError(t, ValidateStructure(flow), "dead ends are not structural")
	assert.NoError(t, ValidateStructure(&domain.FlowDefinition{ID: "draft"}))

	flow.Edges = append(flow.Edges, domain.FlowEdge{Source: "ghost", Target: "menu"})
	flow.Nodes = append(flow.Nodes, domain.NewNode("menu", domain.Transfer{}))
	problems := problemsOf(t, ValidateStructure(flow))
	assert.Contains(t, problems, `edge 4 references missing source "ghost"`)
	assert.Contains(t, problems, `duplicate node id "menu"`)
}

func TestValidateFlow_MenuMapping(t *testing.T) {
	t.Run("missing handle", func(t *testing.T) {
		flow := validFlow()
		flow.Edges[2].SourceHandle = "0"
		problems := problemsOf(t, ValidateFlow(flow))
		assert.Contains(t, problems, `menu menu: button 0 ("Consultar fatura") has 2 edges`)
		assert.Contains(t, problems, `menu menu: button 1 ("Falar com atendente") has no edge`)
	})

	t.Run("unkeyed count mismatch", func(t *testing.T) {
		flow := validFlow()
		flow.Edges[1].SourceHandle = ""
		flow.Edges[2].SourceHandle = ""
		assert.NoError(t, ValidateFlow(flow))

		flow.Edges = append(flow.Edges[:2], flow.Edges[3:]...)
		problems := problemsOf(t, ValidateFlow(flow))
		assert.Contains(t, problems, "menu menu: 2 buttons but 1 outgoing edges")
	})
}

func TestValidateFlow_Payloads(t *testing.T) {
	flow := validFlow()
	flow.Nodes[2] = domain.NewNode("cpf", domain.CollectInfo{ValidationType: "zip"})
	flow.Nodes = append(flow.Nodes, domain.FlowNode{ID: "bad", Kind: domain.KindTransfer, Data: domain.SendMessage{}})

	problems := problemsOf(t, ValidateFlow(flow))
	assert.Contains(t, problems, "node cpf: collectInfo has no variableName")
	assert.Contains(t, problems, `node cpf: unknown validationType "zip"`)
	assert.Contains(t, problems, `node bad declares kind "transfer" but carries "sendMessage" data`)
}

func TestUnreachable(t *testing.T) {
	flow := validFlow()
	flow.Nodes = append(flow.Nodes, domain.NewNode("orphan", domain.Transfer{}))
	flow.Edges = append(flow.Edges, domain.FlowEdge{Source: "orphan", Target: "menu"})

	// orphan has no incoming edge and is declared after start, so start remains the entry.
	assert.Equal(t, []string{"orphan"}, Unreachable(flow))
}

func TestValidateWriteActions(t *testing.T) {
	flow := validFlow()
	flow.Nodes = append(flow.Nodes, domain.NewNode("save", domain.ExecuteWriteAction{WriteActionID: "wa-1"}))

	catalog := []domain.WriteAction{
		{ID: "q-1", Name: "buscar_fatura_cpf", Active: true},
		{ID: "wa-1", Name: "update", RequestBodyTemplate: `{"cpf": "{{cpf}}"}`, Active: true},
	}
	assert.NoError(t, ValidateWriteActions(flow, catalog))

	catalog[1].RequestBodyTemplate = `{"cpf": {{cpf}}}`
	catalog[0].Active = false
	problems := problemsOf(t, ValidateWriteActions(flow, catalog))
	assert.Len(t, problems, 2)
}
