package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExecutionNotFound is returned by stores when no execution exists for a conversation.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrInvalidSelection is returned when a menu choice does not map to a button.
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrNotBotHandled is returned for conversations already transferred or closed.
	ErrNotBotHandled = errors.New("conversation is not handled by the bot")

	// ErrFlowNotFound is returned when a flow id is unknown to the loader.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrNoActiveFlow is returned when no flow is marked active.
	ErrNoActiveFlow = errors.New("no active flow")

	// ErrConversationExists is returned when starting a conversation id already in use.
	ErrConversationExists = errors.New("conversation already exists")

	// ErrConversationClosed is returned when acting on a closed conversation.
	ErrConversationClosed = errors.New("conversation is closed")

	// ErrWriteActionNotFound is returned when a write action id or name is unknown or inactive.
	ErrWriteActionNotFound = errors.New("write action not found")
)

// ValidationError reports customer input rejected by a collect node.
type ValidationError struct {
	NodeID string
	Type   InputType
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("node %s: invalid %s input: %s", e.NodeID, e.Type, e.Reason)
}

// TemplateError reports variables referenced by a body template but not collected.
type TemplateError struct {
	Missing []string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("missing template variables: %s", strings.Join(e.Missing, ", "))
}

// ActionError reports a failed external call. Status is 0 for transport failures.
type ActionError struct {
	Action  string
	Status  int
	Message string
	Err     error
}

func (e *ActionError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("action %s failed with status %d: %s", e.Action, e.Status, e.Message)
	}
	return fmt.Sprintf("action %s failed: %s", e.Action, e.Message)
}

func (e *ActionError) Unwrap() error { return e.Err }

// FlowValidationError aggregates the problems found in a flow definition.
type FlowValidationError struct {
	FlowID   string
	Problems []string
}

func (e *FlowValidationError) Error() string {
	return fmt.Sprintf("flow %s has %d problem(s):\n- %s", e.FlowID, len(e.Problems), strings.Join(e.Problems, "\n- "))
}
