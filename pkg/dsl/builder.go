package dsl

import (
	"fmt"

	"github.com/aretw0/omnibot/internal/validator"
	"github.com/aretw0/omnibot/pkg/adapters/memory"
	"github.com/aretw0/omnibot/pkg/domain"
)

// Builder manages the flow construction. Nodes keep the order they were added in,
// so the first node added without incoming edges is the start node.
type Builder struct {
	flow  domain.FlowDefinition
	order []string
	nodes map[string]*NodeBuilder
}

// New creates a new flow builder. The flow is active unless Inactive is called.
func New(id string) *Builder {
	return &Builder{
		flow:  domain.FlowDefinition{ID: id, Active: true},
		nodes: make(map[string]*NodeBuilder),
	}
}

// Name sets the display name of the flow.
func (b *Builder) Name(name string) *Builder {
	b.flow.Name = name
	return b
}

// Version sets the flow version.
func (b *Builder) Version(v int) *Builder {
	b.flow.Version = v
	return b
}

// Inactive keeps the flow loadable by id without making it the active flow.
func (b *Builder) Inactive() *Builder {
	b.flow.Active = false
	return b
}

// Messages overrides system messages for this flow.
func (b *Builder) Messages(m domain.SystemMessages) *Builder {
	b.flow.Messages = m
	return b
}

// Add creates a new node in the flow.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{id: id, builder: b}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Build assembles the flow and checks it with the flow validator.
func (b *Builder) Build() (*domain.FlowDefinition, error) {
	flow := b.flow
	flow.Nodes = make([]domain.FlowNode, 0, len(b.order))
	flow.Edges = nil

	for _, id := range b.order {
		nb := b.nodes[id]
		if nb.data == nil {
			return nil, fmt.Errorf("node %s has no behavior (call Say, Menu, Collect, Query, Write or Transfer)", id)
		}
		flow.Nodes = append(flow.Nodes, domain.NewNode(id, nb.data))
		for i, e := range nb.edges {
			if e.ID == "" {
				e.ID = fmt.Sprintf("%s-%d", id, i)
			}
			flow.Edges = append(flow.Edges, e)
		}
	}

	if err := validator.ValidateFlow(&flow); err != nil {
		return nil, err
	}
	return &flow, nil
}

// Loader builds the flow and wraps it in an in-memory loader.
func (b *Builder) Loader() (*memory.Loader, error) {
	flow, err := b.Build()
	if err != nil {
		return nil, err
	}
	loader, err := memory.NewLoader(flow)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}
