package dsl

import (
	"fmt"

	"github.com/aretw0/omnibot/pkg/domain"
)

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	id      string
	data    domain.NodeData
	edges   []domain.FlowEdge
	builder *Builder
}

// Say makes the node send a fixed message and continue.
func (n *NodeBuilder) Say(message string) *NodeBuilder {
	n.data = domain.SendMessage{Message: message}
	return n
}

// Menu makes the node show buttons and wait for a choice.
// Route each button with Button or Option.
func (n *NodeBuilder) Menu(message string) *NodeBuilder {
	if menu, ok := n.data.(domain.MenuButtons); ok {
		menu.Message = message
		n.data = menu
		return n
	}
	n.data = domain.MenuButtons{Message: message}
	return n
}

// Button appends a menu button routed to target.
func (n *NodeBuilder) Button(label, target string) *NodeBuilder {
	menu, _ := n.data.(domain.MenuButtons)
	index := len(menu.Buttons)
	menu.Buttons = append(menu.Buttons, label)
	n.data = menu
	n.edges = append(n.edges, domain.FlowEdge{
		Source:       n.id,
		Target:       target,
		SourceHandle: fmt.Sprintf("button-%d", index),
	})
	return n
}

// Collect makes the node ask for a value, validate it as kind and store it in variable.
func (n *NodeBuilder) Collect(prompt string, kind domain.InputType, variable string) *NodeBuilder {
	n.data = domain.CollectInfo{UserMessage: prompt, ValidationType: kind, VariableName: variable}
	return n
}

// OnInvalid sets the message shown when collected input fails validation.
func (n *NodeBuilder) OnInvalid(message string) *NodeBuilder {
	if c, ok := n.data.(domain.CollectInfo); ok {
		c.ErrorMessage = message
		n.data = c
	}
	return n
}

// Query makes the node call the named ERP query with the variable input.
func (n *NodeBuilder) Query(action, input string) *NodeBuilder {
	n.data = domain.Integration{Action: action, Input: input}
	return n
}

// Write makes the node invoke a write action from the catalog.
func (n *NodeBuilder) Write(writeActionID string) *NodeBuilder {
	n.data = domain.ExecuteWriteAction{WriteActionID: writeActionID}
	return n
}

// Success sets the message shown after a query or write action succeeds.
func (n *NodeBuilder) Success(message string) *NodeBuilder {
	switch d := n.data.(type) {
	case domain.Integration:
		d.Message = message
		n.data = d
	case domain.ExecuteWriteAction:
		d.SuccessMessage = message
		n.data = d
	}
	return n
}

// Transfer makes the node hand the conversation to queue. An empty message uses the default text.
func (n *NodeBuilder) Transfer(queue, message string) *NodeBuilder {
	n.data = domain.Transfer{Queue: queue, Message: message}
	n.edges = nil
	return n
}

// Go adds an unconditional edge to the target node.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	n.edges = append(n.edges, domain.FlowEdge{Source: n.id, Target: target})
	return n
}

// Build returns the node as it stands, without its edges.
func (n *NodeBuilder) Build() domain.FlowNode {
	return domain.NewNode(n.id, n.data)
}
