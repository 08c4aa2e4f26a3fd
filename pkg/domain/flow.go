package domain

// FlowDefinition is the static graph of a chatbot.
// Once loaded it is never mutated; executions refer to it by ID.
type FlowDefinition struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Version int    `json:"version,omitempty" yaml:"version,omitempty"`
	Active  bool   `json:"active,omitempty" yaml:"active,omitempty"`

	Nodes []FlowNode `json:"nodes" yaml:"nodes"`
	Edges []FlowEdge `json:"edges" yaml:"edges"`

	// Messages overrides the system messages for this flow.
	Messages SystemMessages `json:"messages,omitempty" yaml:"messages,omitempty"`
}

// Node returns the node with the given id.
func (f *FlowDefinition) Node(id string) (FlowNode, bool) {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return FlowNode{}, false
}

// Outgoing returns the edges leaving id, in declaration order.
func (f *FlowDefinition) Outgoing(id string) []FlowEdge {
	var out []FlowEdge
	for _, e := range f.Edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// StartNode returns the first node without incoming edges.
// If every node has an incoming edge, the first declared node is used.
func (f *FlowDefinition) StartNode() (FlowNode, bool) {
	if len(f.Nodes) == 0 {
		return FlowNode{}, false
	}
	incoming := make(map[string]bool, len(f.Edges))
	for _, e := range f.Edges {
		incoming[e.Target] = true
	}
	for _, n := range f.Nodes {
		if !incoming[n.ID] {
			return n, true
		}
	}
	return f.Nodes[0], true
}
