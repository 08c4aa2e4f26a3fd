package domain

// ExecutionStatus is the bot-side lifecycle of a conversation.
type ExecutionStatus string

const (
	StatusBotActive   ExecutionStatus = "bot_active"  // Engine owns the conversation
	StatusTransferred ExecutionStatus = "transferred" // Handed to a human queue
	StatusClosed      ExecutionStatus = "closed"      // Conversation finished
)

// FlowExecution is the per-conversation cursor over a flow.
type FlowExecution struct {
	ConversationID string          `json:"conversation_id"`
	FlowID         string          `json:"flow_id"`
	CurrentNodeID  string          `json:"current_node_id"`
	Status         ExecutionStatus `json:"status"`

	// AwaitingInput is set when the current node has prompted and waits for a reply.
	AwaitingInput bool      `json:"awaiting_input"`
	InputType     InputType `json:"input_type,omitempty"`

	// Variables are the values collected so far, keyed by variable name.
	Variables map[string]string `json:"variables"`

	// History lists visited node ids in order.
	History []string `json:"history,omitempty"`

	// Failed marks that the last turn ended on an action or template error.
	// The next turn retries the current node.
	Failed bool `json:"failed,omitempty"`

	Queue      string `json:"queue,omitempty"`
	AssigneeID string `json:"assignee_id,omitempty"`

	// Turn counts processed inbound messages.
	Turn int `json:"turn"`
}

// NewExecution creates an execution positioned at startNodeID.
func NewExecution(conversationID, flowID, startNodeID string) *FlowExecution {
	return &FlowExecution{
		ConversationID: conversationID,
		FlowID:         flowID,
		CurrentNodeID:  startNodeID,
		Status:         StatusBotActive,
		Variables:      make(map[string]string),
		History:        []string{startNodeID},
	}
}

// Terminal reports whether the engine no longer drives this conversation.
func (e *FlowExecution) Terminal() bool {
	return e.Status == StatusTransferred || e.Status == StatusClosed
}

// Snapshot returns a deep copy safe for independent mutation.
func (e *FlowExecution) Snapshot() *FlowExecution {
	if e == nil {
		return nil
	}
	next := *e
	next.Variables = make(map[string]string, len(e.Variables))
	for k, v := range e.Variables {
		next.Variables[k] = v
	}
	if e.History != nil {
		next.History = make([]string, len(e.History))
		copy(next.History, e.History)
	}
	return &next
}
