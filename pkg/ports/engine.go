package ports

import (
	"context"

	"github.com/aretw0/omnibot/pkg/domain"
)

// ConversationEngine is the surface channel adapters (HTTP, CLI) drive.
type ConversationEngine interface {
	// Start opens a conversation and returns the first bot response.
	Start(ctx context.Context, conversationID string) (*domain.BotResponse, error)

	// HandleMessage processes one inbound message for a bot-handled conversation.
	HandleMessage(ctx context.Context, msg domain.InboundMessage) (*domain.BotResponse, error)

	// Assign records the agent that picked up a transferred conversation.
	Assign(ctx context.Context, conversationID, agentID string) error

	// Close finishes a conversation.
	Close(ctx context.Context, conversationID string) error

	// Execution returns the current execution snapshot.
	Execution(ctx context.Context, conversationID string) (*domain.FlowExecution, error)

	// ActiveFlow returns the flow new conversations start on.
	ActiveFlow(ctx context.Context) (*domain.FlowDefinition, error)
}
