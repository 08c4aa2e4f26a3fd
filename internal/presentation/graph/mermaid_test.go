package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/omnibot/internal/presentation/graph"
	"github.com/aretw0/omnibot/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func flow() *domain.FlowDefinition {
	return &domain.FlowDefinition{
		ID: "support",
		Nodes: []domain.FlowNode{
			domain.NewNode("greet", domain.SendMessage{Message: "Oi"}),
			domain.NewNode("main-menu", domain.MenuButtons{Message: "Escolha", Buttons: []string{"Fatura \"PDF\"", "Atendente"}}),
			domain.NewNode("invoice", domain.Integration{Action: "buscar_fatura_cpf", Input: "cpf"}),
			domain.NewNode("email", domain.CollectInfo{VariableName: "email", ValidationType: domain.InputEmail}),
			domain.NewNode("human", domain.Transfer{}),
		},
		Edges: []domain.FlowEdge{
			{Source: "greet", Target: "main-menu"},
			{Source: "main-menu", Target: "human", SourceHandle: "button-1"},
			{Source: "main-menu", Target: "invoice", SourceHandle: "button-0"},
			{Source: "invoice", Target: "email"},
			{Source: "email", Target: "human"},
		},
	}
}

func TestGenerateMermaid_Shapes(t *testing.T) {
	out := graph.GenerateMermaid(flow(), nil)

	for _, want := range []string{
		"graph TD\n",
		`greet(("greet"))`,
		`main_menu{"main-menu"}`,
		`invoice[["invoice <br/> buscar_fatura_cpf"]]`,
		`email[/"email <br/> email"/]`,
		`human>"human <br/> geral"]`,
		`main_menu -- "Atendente" --> human`,
		`main_menu -- "Fatura 'PDF'" --> invoice`,
		`greet --> main_menu`,
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "classDef")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	exec := domain.NewExecution("c1", "support", "greet")
	exec.History = append(exec.History, "main-menu", "greet")
	exec.CurrentNodeID = "main-menu"

	out := graph.GenerateMermaid(flow(), graph.OverlayFor(exec))

	assert.Equal(t, 1, strings.Count(out, "class greet visited;"))
	assert.Contains(t, out, "class main_menu visited;")
	assert.Contains(t, out, "class main_menu current;")
	assert.Nil(t, graph.OverlayFor(nil))
}
