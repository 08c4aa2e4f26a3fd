package domain

import (
	"strconv"
	"strings"
)

// FlowEdge is a directed link between two nodes.
type FlowEdge struct {
	ID     string `json:"id,omitempty" yaml:"id,omitempty" mapstructure:"id"`
	Source string `json:"source" yaml:"source" mapstructure:"source"`
	Target string `json:"target" yaml:"target" mapstructure:"target"`

	// SourceHandle selects which output of the source produced this edge.
	// For menus it names the button: "0", "button-0", "btn-0" all map to index 0.
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty" mapstructure:"sourceHandle"`
}

// HandleIndex parses SourceHandle as a button index.
// It returns false when the edge carries no numeric handle.
func (e FlowEdge) HandleIndex() (int, bool) {
	h := strings.TrimSpace(e.SourceHandle)
	if h == "" {
		return 0, false
	}
	for _, prefix := range []string{"button-", "button_", "btn-", "btn_"} {
		if strings.HasPrefix(h, prefix) {
			h = strings.TrimPrefix(h, prefix)
			break
		}
	}
	i, err := strconv.Atoi(h)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}
