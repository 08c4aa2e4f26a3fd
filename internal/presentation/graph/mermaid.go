package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/omnibot/pkg/domain"
)

// Overlay contains execution state to highlight on the graph.
type Overlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayFor builds an overlay from an execution.
func OverlayFor(exec *domain.FlowExecution) *Overlay {
	if exec == nil {
		return nil
	}
	return &Overlay{VisitedNodes: exec.History, CurrentNode: exec.CurrentNodeID}
}

// GenerateMermaid renders a flow as a Mermaid flowchart.
// Shapes follow the node kind:
//   - start node: ((circle))
//   - menu: {diamond}
//   - collect: [/parallelogram/]
//   - integration and write action: [[subroutine]]
//   - transfer: >flag]
//
// Menu edges are labelled with their button text.
func GenerateMermaid(flow *domain.FlowDefinition, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	start, _ := flow.StartNode()
	for _, node := range flow.Nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch {
		case node.ID == start.ID:
			opener, closer = "((", "))"
		case node.Kind == domain.KindMenuButtons:
			opener, closer = "{", "}"
		case node.Kind == domain.KindCollectInfo:
			opener, closer = "[/", "/]"
		case node.Kind == domain.KindIntegration, node.Kind == domain.KindExecuteWriteAction:
			opener, closer = "[[", "]]"
		case node.Kind == domain.KindTransfer:
			opener, closer = ">", "]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escape(label(node)), closer)

		for i, edge := range flow.Outgoing(node.ID) {
			safeTo := sanitizeMermaidID(edge.Target)
			if text := edgeLabel(node, edge, i); text != "" {
				fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, escape(text), safeTo)
				continue
			}
			fmt.Fprintf(&sb, "    %s --> %s\n", safeID, safeTo)
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if safeID != "" && !seen[safeID] {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}
	return sb.String()
}

func label(node domain.FlowNode) string {
	switch d := node.Data.(type) {
	case domain.Integration:
		return node.ID + " <br/> " + d.Action
	case domain.ExecuteWriteAction:
		return node.ID + " <br/> " + d.WriteActionID
	case domain.CollectInfo:
		return node.ID + " <br/> " + d.VariableName
	case domain.Transfer:
		queue := d.Queue
		if queue == "" {
			queue = domain.DefaultQueue
		}
		return node.ID + " <br/> " + queue
	}
	return node.ID
}

func edgeLabel(node domain.FlowNode, edge domain.FlowEdge, position int) string {
	menu, ok := node.Data.(domain.MenuButtons)
	if !ok {
		return ""
	}
	idx, ok := edge.HandleIndex()
	if !ok {
		idx = position
	}
	if idx < len(menu.Buttons) {
		return menu.Buttons[idx]
	}
	return ""
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
