package omnibot_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/omnibot"
	"github.com/aretw0/omnibot/pkg/adapters/memory"
	"github.com/aretw0/omnibot/pkg/domain"
)

// ExampleNew_memory runs a flow defined in Go, without reading files.
func ExampleNew_memory() {
	loader, err := memory.NewLoader(&domain.FlowDefinition{
		ID:     "support",
		Active: true,
		Nodes: []domain.FlowNode{
			domain.NewNode("greet", domain.SendMessage{Message: "Bem-vindo!"}),
			domain.NewNode("menu", domain.MenuButtons{Message: "Como posso ajudar?", Buttons: []string{"Segunda via", "Atendente"}}),
			domain.NewNode("billing", domain.Transfer{Queue: "financeiro"}),
			domain.NewNode("human", domain.Transfer{Queue: "atendimento", Message: "Transferindo..."}),
		},
		Edges: []domain.FlowEdge{
			{Source: "greet", Target: "menu"},
			{Source: "menu", Target: "billing", SourceHandle: "button-0"},
			{Source: "menu", Target: "human", SourceHandle: "button-1"},
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	eng, err := omnibot.New("", omnibot.WithLoader(loader))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	resp, err := eng.Start(ctx, "conv-1")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(resp.Content)
	fmt.Println(resp.Buttons)

	resp, err = eng.HandleMessage(ctx, domain.InboundMessage{ConversationID: "conv-1", Content: "atendente", MessageType: domain.MessageText})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(resp.Type, resp.TransferQueue, resp.Content)

	// Output:
	// Bem-vindo!
	//
	// Como posso ajudar?
	// [Segunda via Atendente]
	// transfer atendimento Transferindo...
}
