package runtime

import (
	"strconv"
	"strings"

	"github.com/aretw0/omnibot/pkg/domain"
)

// resolveChoice maps a customer reply to a zero-based button index.
// Button presses carry the index; free text may name the label or its 1-based position.
func resolveChoice(buttons []string, in *Input) (int, bool) {
	if in.ButtonIndex != nil {
		return *in.ButtonIndex, true
	}
	text := strings.TrimSpace(in.Text)
	for i, label := range buttons {
		if strings.EqualFold(strings.TrimSpace(label), text) {
			return i, true
		}
	}
	if n, err := strconv.Atoi(text); err == nil {
		return n - 1, true
	}
	return 0, false
}

// menuEdge finds the edge of the chosen button.
// Edges keyed by handle win; menus whose edges carry no handles use declaration order.
func menuEdge(edges []domain.FlowEdge, buttons []string, index int) (domain.FlowEdge, bool) {
	if index < 0 || (len(buttons) > 0 && index >= len(buttons)) {
		return domain.FlowEdge{}, false
	}

	keyed := false
	for _, e := range edges {
		if i, ok := e.HandleIndex(); ok {
			keyed = true
			if i == index {
				return e, true
			}
		}
	}
	if keyed || index >= len(edges) {
		return domain.FlowEdge{}, false
	}
	return edges[index], true
}

// defaultEdge is the edge followed by nodes that advance unconditionally.
// Edges without a handle are preferred; otherwise the first declared edge is used.
func defaultEdge(edges []domain.FlowEdge) (domain.FlowEdge, bool) {
	if len(edges) == 0 {
		return domain.FlowEdge{}, false
	}
	for _, e := range edges {
		if e.SourceHandle == "" {
			return e, true
		}
	}
	return edges[0], true
}
