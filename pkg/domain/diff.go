package domain

// ExecutionDiff represents the changes between two executions.
// It is serialized as the payload of CONVERSATION_UPDATED events so agents
// can merge partial updates into their local view.
type ExecutionDiff struct {
	// ConversationID is always present to identify the target.
	ConversationID string `json:"conversation_id"`

	CurrentNodeID *string          `json:"current_node_id,omitempty"`
	Status        *ExecutionStatus `json:"status,omitempty"`
	AwaitingInput *bool            `json:"awaiting_input,omitempty"`
	Queue         *string          `json:"queue,omitempty"`

	// Variables contains only changed, added or deleted keys.
	// For deletions, the key is present with a nil value.
	Variables map[string]any `json:"variables,omitempty"`

	// Visited contains node ids appended to history.
	Visited []string `json:"visited,omitempty"`
}

// Diff calculates the difference between before and after.
// If before is nil, it returns a diff representing the entire execution.
func Diff(before, after *FlowExecution) *ExecutionDiff {
	if after == nil {
		return nil
	}

	diff := &ExecutionDiff{ConversationID: after.ConversationID}

	if before == nil || before.CurrentNodeID != after.CurrentNodeID {
		diff.CurrentNodeID = &after.CurrentNodeID
	}
	if before == nil || before.Status != after.Status {
		diff.Status = &after.Status
	}
	if before == nil || before.AwaitingInput != after.AwaitingInput {
		diff.AwaitingInput = &after.AwaitingInput
	}
	if (before == nil && after.Queue != "") || (before != nil && before.Queue != after.Queue) {
		diff.Queue = &after.Queue
	}

	diff.Variables = diffVariables(before, after)
	diff.Visited = diffHistory(before, after)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffVariables(before, after *FlowExecution) map[string]any {
	delta := make(map[string]any)

	if before == nil {
		for k, v := range after.Variables {
			delta[k] = v
		}
	} else {
		for k, v := range after.Variables {
			if old, ok := before.Variables[k]; !ok || old != v {
				delta[k] = v
			}
		}
		for k := range before.Variables {
			if _, ok := after.Variables[k]; !ok {
				delta[k] = nil
			}
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// diffHistory assumes append-only history.
func diffHistory(before, after *FlowExecution) []string {
	if len(after.History) == 0 {
		return nil
	}
	if before == nil {
		return after.History
	}
	if len(after.History) > len(before.History) {
		return after.History[len(before.History):]
	}
	return nil
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *ExecutionDiff) IsEmpty() bool {
	return d.CurrentNodeID == nil &&
		d.Status == nil &&
		d.AwaitingInput == nil &&
		d.Queue == nil &&
		len(d.Variables) == 0 &&
		len(d.Visited) == 0
}

// Map flattens the diff for event payloads.
func (d *ExecutionDiff) Map() map[string]any {
	if d == nil {
		return nil
	}
	m := map[string]any{"conversation_id": d.ConversationID}
	if d.CurrentNodeID != nil {
		m["current_node_id"] = *d.CurrentNodeID
	}
	if d.Status != nil {
		m["status"] = string(*d.Status)
	}
	if d.AwaitingInput != nil {
		m["awaiting_input"] = *d.AwaitingInput
	}
	if d.Queue != nil {
		m["queue"] = *d.Queue
	}
	if len(d.Variables) > 0 {
		m["variables"] = d.Variables
	}
	if len(d.Visited) > 0 {
		m["visited"] = d.Visited
	}
	return m
}
