package ports

import (
	"context"

	"github.com/aretw0/omnibot/pkg/domain"
)

// VariableStore persists conversation variables, unique per (conversation, name).
type VariableStore interface {
	// AppendVariable writes name=value for the conversation, replacing any previous value.
	AppendVariable(ctx context.Context, conversationID, name, value string) error

	// Variables returns all variables of the conversation (empty map if none).
	Variables(ctx context.Context, conversationID string) (map[string]string, error)
}

// ExecutionStore persists the per-conversation flow cursor.
// Writes are last-write-wins per conversation id; there is no cross-conversation visibility.
type ExecutionStore interface {
	VariableStore

	// Save persists the execution for a conversation.
	Save(ctx context.Context, conversationID string, exec *domain.FlowExecution) error

	// Load retrieves the execution for a conversation.
	// Returns domain.ErrExecutionNotFound if the conversation has none (the Initial case).
	Load(ctx context.Context, conversationID string) (*domain.FlowExecution, error)

	// Delete removes the execution and its variables.
	Delete(ctx context.Context, conversationID string) error

	// List returns the ids of stored executions.
	List(ctx context.Context) ([]string, error)
}
