package runtime_test

import (
	"github.com/aretw0/omnibot/pkg/domain"
)

// billingFlow is the reference conversation used across runtime tests:
//
//	greet -> menu -(0)-> invoice(cpf) -> thanks -> (dead end)
//	              -(1)-> human(transfer "atendimento")
func billingFlow() *domain.FlowDefinition {
	return &domain.FlowDefinition{
		ID:     "billing",
		Active: true,
		Nodes: []domain.FlowNode{
			domain.NewNode("greet", domain.SendMessage{Message: "Olá!"}),
			domain.NewNode("menu", domain.MenuButtons{
				Message: "Como posso ajudar?",
				Buttons: []string{"Consultar fatura", "Falar com atendente"},
			}),
			domain.NewNode("invoice", domain.Integration{Action: "buscar_fatura_cpf", Input: "cpf"}),
			domain.NewNode("thanks", domain.SendMessage{Message: "Obrigado!"}),
			domain.NewNode("human", domain.Transfer{Queue: "atendimento"}),
		},
		Edges: []domain.FlowEdge{
			{Source: "greet", Target: "menu"},
			{Source: "menu", Target: "invoice", SourceHandle: "button-0"},
			{Source: "menu", Target: "human", SourceHandle: "button-1"},
			{Source: "invoice", Target: "thanks"},
		},
	}
}

// signupFlow collects an email then calls a write action.
func signupFlow() *domain.FlowDefinition {
	return &domain.FlowDefinition{
		ID:     "signup",
		Active: true,
		Nodes: []domain.FlowNode{
			domain.NewNode("ask", domain.CollectInfo{
				UserMessage:    "Qual seu email?",
				ValidationType: domain.InputEmail,
				VariableName:   "email",
				ErrorMessage:   "Email inválido.",
			}),
			domain.NewNode("save", domain.ExecuteWriteAction{WriteActionID: "wa-email", SuccessMessage: "Salvo!"}),
			domain.NewNode("done", domain.Transfer{}),
		},
		Edges: []domain.FlowEdge{
			{Source: "ask", Target: "save"},
			{Source: "save", Target: "done"},
		},
	}
}

func intPtr(i int) *int { return &i }
