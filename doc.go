/*
Package omnibot is a scripted chatbot flow engine for omnichannel customer service.

A flow is a directed graph of nodes (send message, button menu, collect
input, ERP integration, write action, transfer to a human queue). The engine
keeps one execution cursor per conversation, advances it on every inbound
message, calls external HTTP actions when a node requires it, and emits
conversation events for agent dashboards.

# Architecture

The package follows a hexagonal layout. pkg/domain holds pure types,
pkg/ports the interfaces, and pkg/adapters the implementations (memory,
file, Redis, PostgreSQL, NATS, HTTP). The evaluator in internal/runtime is
a pure function from (flow, execution, input) to a Step; the engine around
it performs side effects, persists the result and publishes events.

Turns of one conversation are serialized; turns of different conversations
run in parallel. State is saved only after any external call returns, so a
crash mid-call leaves the conversation where it was.

# Usage

	eng, err := omnibot.New("./flows",
		omnibot.WithActionClient(actions.New(actions.Config{BaseURL: erpURL, Token: token})),
		omnibot.WithCatalog(memory.NewCatalog(actions.QueryActions()...)),
	)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := eng.Start(ctx, "conversation-1")
	// render resp.Content and resp.Buttons to the customer...

	resp, err = eng.HandleMessage(ctx, domain.InboundMessage{
		ConversationID: "conversation-1",
		Content:        "2",
		MessageType:    domain.MessageText,
	})
*/
package omnibot
