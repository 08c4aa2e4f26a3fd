package validator

import (
	"fmt"
	"sort"

	"github.com/aretw0/omnibot/pkg/actions"
	"github.com/aretw0/omnibot/pkg/domain"
)

// ValidateFlow checks the structural invariants of a flow:
// node payloads agree with their kind, edges reference existing nodes,
// every menu button maps to exactly one edge, and every node reachable
// from the start either has an outgoing edge or is a transfer.
func ValidateFlow(flow *domain.FlowDefinition) error {
	if flow == nil {
		return fmt.Errorf("flow is nil")
	}

	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if len(flow.Nodes) == 0 {
		report("flow has no nodes")
	}
	problems = append(problems, structure(flow)...)

	for _, n := range flow.Nodes {
		if menu, ok := n.Data.(domain.MenuButtons); ok {
			for _, p := range checkMenu(flow, n.ID, menu) {
				report("menu %s: %s", n.ID, p)
			}
		}
	}

	for _, id := range DeadEnds(flow) {
		report("node %s is a dead end (no outgoing edge and not a transfer)", id)
	}

	if len(problems) > 0 {
		return &domain.FlowValidationError{FlowID: flow.ID, Problems: problems}
	}
	return nil
}

// ValidateStructure checks only what evaluation cannot recover from: node
// payloads agree with their kind, ids are unique and every edge references
// existing nodes. Loaders run it on every flow they accept.
func ValidateStructure(flow *domain.FlowDefinition) error {
	if flow == nil {
		return fmt.Errorf("flow is nil")
	}
	if problems := structure(flow); len(problems) > 0 {
		return &domain.FlowValidationError{FlowID: flow.ID, Problems: problems}
	}
	return nil
}

func structure(flow *domain.FlowDefinition) []string {
	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if flow.ID == "" {
		report("flow has no id")
	}

	ids := make(map[string]bool, len(flow.Nodes))
	for _, n := range flow.Nodes {
		if err := n.Validate(); err != nil {
			report("%v", err)
		}
		if ids[n.ID] {
			report("duplicate node id %q", n.ID)
		}
		ids[n.ID] = true
		for _, p := range checkPayload(n) {
			report("node %s: %s", n.ID, p)
		}
	}

	for i, e := range flow.Edges {
		if !ids[e.Source] {
			report("edge %d references missing source %q", i, e.Source)
		}
		if !ids[e.Target] {
			report("edge %d (%s) references missing target %q", i, e.Source, e.Target)
		}
	}
	return problems
}

func checkPayload(n domain.FlowNode) []string {
	var out []string
	switch d := n.Data.(type) {
	case domain.MenuButtons:
		if len(d.Buttons) == 0 {
			out = append(out, "menu has no buttons")
		}
	case domain.CollectInfo:
		if d.VariableName == "" {
			out = append(out, "collectInfo has no variableName")
		}
		switch d.ValidationType {
		case "", domain.InputText, domain.InputEmail, domain.InputPhone, domain.InputCPF:
		default:
			out = append(out, fmt.Sprintf("unknown validationType %q", d.ValidationType))
		}
	case domain.Integration:
		if d.Action == "" {
			out = append(out, "integration has no action")
		}
	case domain.ExecuteWriteAction:
		if d.WriteActionID == "" {
			out = append(out, "executeWriteAction has no writeActionId")
		}
	}
	return out
}

// checkMenu verifies that each button index maps to exactly one outgoing edge.
func checkMenu(flow *domain.FlowDefinition, id string, menu domain.MenuButtons) []string {
	edges := flow.Outgoing(id)
	var out []string

	counts := make(map[int]int)
	keyed := false
	for _, e := range edges {
		if i, ok := e.HandleIndex(); ok {
			keyed = true
			counts[i]++
		}
	}

	if !keyed {
		if len(edges) != len(menu.Buttons) {
			out = append(out, fmt.Sprintf("%d buttons but %d outgoing edges", len(menu.Buttons), len(edges)))
		}
		return out
	}

	for i := range menu.Buttons {
		switch counts[i] {
		case 0:
			out = append(out, fmt.Sprintf("button %d (%q) has no edge", i, menu.Buttons[i]))
		case 1:
		default:
			out = append(out, fmt.Sprintf("button %d (%q) has %d edges", i, menu.Buttons[i], counts[i]))
		}
	}
	for i := range counts {
		if i >= len(menu.Buttons) {
			out = append(out, fmt.Sprintf("edge handle %d has no button", i))
		}
	}
	sort.Strings(out)
	return out
}

// Reachable returns the ids reachable from the start node, in BFS order.
func Reachable(flow *domain.FlowDefinition) []string {
	start, ok := flow.StartNode()
	if !ok {
		return nil
	}

	visited := map[string]bool{start.ID: true}
	order := []string{start.ID}
	queue := []string{start.ID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, e := range flow.Outgoing(current) {
			if visited[e.Target] {
				continue
			}
			if _, exists := flow.Node(e.Target); !exists {
				continue
			}
			visited[e.Target] = true
			order = append(order, e.Target)
			queue = append(queue, e.Target)
		}
	}
	return order
}

// DeadEnds lists reachable nodes that have no resolvable outgoing edge and are not transfers.
// The engine hands such nodes off to the default queue at runtime.
func DeadEnds(flow *domain.FlowDefinition) []string {
	var out []string
	for _, id := range Reachable(flow) {
		node, _ := flow.Node(id)
		if node.Kind == domain.KindTransfer {
			continue
		}
		resolvable := false
		for _, e := range flow.Outgoing(id) {
			if _, ok := flow.Node(e.Target); ok {
				resolvable = true
				break
			}
		}
		if !resolvable {
			out = append(out, id)
		}
	}
	return out
}

// Unreachable lists nodes no path from the start node visits.
func Unreachable(flow *domain.FlowDefinition) []string {
	seen := make(map[string]bool)
	for _, id := range Reachable(flow) {
		seen[id] = true
	}
	var out []string
	for _, n := range flow.Nodes {
		if !seen[n.ID] {
			out = append(out, n.ID)
		}
	}
	return out
}

// ValidateWriteActions checks that flow references resolve in the catalog
// and that every body template is JSON once filled in.
func ValidateWriteActions(flow *domain.FlowDefinition, catalog []domain.WriteAction) error {
	byRef := make(map[string]domain.WriteAction, 2*len(catalog))
	var problems []string
	for _, a := range catalog {
		byRef[a.ID] = a
		if a.Name != "" {
			if _, taken := byRef[a.Name]; !taken {
				byRef[a.Name] = a
			}
		}
		if a.RequestBodyTemplate != "" {
			if err := actions.ValidateJSONTemplate(a.RequestBodyTemplate); err != nil {
				problems = append(problems, fmt.Sprintf("write action %s: %v", a.ID, err))
			}
		}
	}

	check := func(nodeID, ref string) {
		a, ok := byRef[ref]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("node %s references unknown write action %q", nodeID, ref))
		case !a.Active:
			problems = append(problems, fmt.Sprintf("node %s references inactive write action %q", nodeID, ref))
		}
	}
	for _, n := range flow.Nodes {
		switch d := n.Data.(type) {
		case domain.ExecuteWriteAction:
			check(n.ID, d.WriteActionID)
		case domain.Integration:
			check(n.ID, d.Action)
		}
	}

	if len(problems) > 0 {
		return &domain.FlowValidationError{FlowID: flow.ID, Problems: problems}
	}
	return nil
}
