package domain

import (
	"context"
	"time"
)

// EventType names a conversation notification.
type EventType string

const (
	EventNewConversation      EventType = "NEW_CONVERSATION"
	EventConversationUpdated  EventType = "CONVERSATION_UPDATED"
	EventConversationAssigned EventType = "CONVERSATION_ASSIGNED"
	EventConversationClosed   EventType = "CONVERSATION_CLOSED"
)

// Event is a notification for connected agents.
// Delivery is at-least-once; consumers dedupe on ID.
type Event struct {
	ID             string         `json:"id"`
	Type           EventType      `json:"type"`
	ConversationID string         `json:"conversation_id"`
	Timestamp      time.Time      `json:"timestamp"`
	Payload        map[string]any `json:"payload,omitempty"`
}

// NodeEvent represents the engine visiting a node.
type NodeEvent struct {
	ConversationID string   `json:"conversation_id"`
	NodeID         string   `json:"node_id"`
	Kind           NodeKind `json:"kind"`
}

// ActionEvent represents an external action call.
type ActionEvent struct {
	ConversationID string        `json:"conversation_id"`
	NodeID         string        `json:"node_id"`
	Action         string        `json:"action"`
	Duration       time.Duration `json:"duration,omitempty"`
	IsError        bool          `json:"is_error,omitempty"`
}

// TurnEvent summarizes one processed inbound message.
type TurnEvent struct {
	ConversationID string       `json:"conversation_id"`
	Response       ResponseType `json:"response"`
	Duration       time.Duration
	Err            error
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnNodeEnter    func(context.Context, *NodeEvent)
	OnActionCall   func(context.Context, *ActionEvent)
	OnActionReturn func(context.Context, *ActionEvent)
	OnTurn         func(context.Context, *TurnEvent)
	OnTransfer     func(ctx context.Context, conversationID, queue string)
}
