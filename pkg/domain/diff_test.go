package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	active := StatusBotActive
	transferred := StatusTransferred

	tests := []struct {
		name     string
		old      *FlowExecution
		new      *FlowExecution
		wantDiff *ExecutionDiff // nil means no diff expected
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new: &FlowExecution{
				ConversationID: "conv-1",
				CurrentNodeID:  "start",
				Status:         StatusBotActive,
				Variables:      map[string]string{"cpf": "111"},
				History:        []string{"start"},
			},
			wantDiff: &ExecutionDiff{
				ConversationID: "conv-1",
				CurrentNodeID:  &[]string{"start"}[0],
				Status:         &active,
				Variables:      map[string]any{"cpf": "111"},
				Visited:        []string{"start"},
			},
		},
		{
			name: "No Changes",
			old: &FlowExecution{
				ConversationID: "conv-1",
				CurrentNodeID:  "start",
				Status:         StatusBotActive,
				Variables:      map[string]string{"cpf": "111"},
				History:        []string{"start"},
			},
			new: &FlowExecution{
				ConversationID: "conv-1",
				CurrentNodeID:  "start",
				Status:         StatusBotActive,
				Variables:      map[string]string{"cpf": "111"},
				History:        []string{"start"},
			},
			wantDiff: nil,
		},
		{
			name: "Transfer",
			old: &FlowExecution{
				ConversationID: "conv-1",
				CurrentNodeID:  "handoff",
				Status:         StatusBotActive,
			},
			new: &FlowExecution{
				ConversationID: "conv-1",
				CurrentNodeID:  "handoff",
				Status:         StatusTransferred,
				Queue:          "atendimento",
			},
			wantDiff: &ExecutionDiff{
				ConversationID: "conv-1",
				Status:         &transferred,
				Queue:          &[]string{"atendimento"}[0],
			},
		},
		{
			name: "Variables Added & Modified",
			old: &FlowExecution{
				ConversationID: "conv-1",
				Variables:      map[string]string{"a": "1", "b": "old"},
			},
			new: &FlowExecution{
				ConversationID: "conv-1",
				Variables:      map[string]string{"a": "1", "b": "new", "c": "x"},
			},
			wantDiff: &ExecutionDiff{
				ConversationID: "conv-1",
				Variables:      map[string]any{"b": "new", "c": "x"},
			},
		},
		{
			name: "History Append",
			old: &FlowExecution{
				ConversationID: "conv-1",
				CurrentNodeID:  "start",
				History:        []string{"start"},
			},
			new: &FlowExecution{
				ConversationID: "conv-1",
				CurrentNodeID:  "menu",
				History:        []string{"start", "menu"},
			},
			wantDiff: &ExecutionDiff{
				ConversationID: "conv-1",
				CurrentNodeID:  &[]string{"menu"}[0],
				Visited:        []string{"menu"},
			},
		},
		{
			name: "Variable Deletion",
			old:  &FlowExecution{Variables: map[string]string{"a": "1", "b": "2"}},
			new:  &FlowExecution{Variables: map[string]string{"a": "1"}},
			wantDiff: &ExecutionDiff{
				Variables: map[string]any{"b": nil},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("Diff() = %v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Diff() = nil, want %v", tt.wantDiff)
			}
			if got.ConversationID != tt.wantDiff.ConversationID {
				t.Errorf("ConversationID = %v, want %v", got.ConversationID, tt.wantDiff.ConversationID)
			}
			if !reflect.DeepEqual(got.Variables, tt.wantDiff.Variables) {
				t.Errorf("Variables = %v, want %v", got.Variables, tt.wantDiff.Variables)
			}
			if !reflect.DeepEqual(got.Visited, tt.wantDiff.Visited) {
				t.Errorf("Visited = %v, want %v", got.Visited, tt.wantDiff.Visited)
			}
			if !equalPtr(got.CurrentNodeID, tt.wantDiff.CurrentNodeID) {
				t.Errorf("CurrentNodeID = %v, want %v", got.CurrentNodeID, tt.wantDiff.CurrentNodeID)
			}
			if !equalPtr(got.Status, tt.wantDiff.Status) {
				t.Errorf("Status = %v, want %v", got.Status, tt.wantDiff.Status)
			}
			if !equalPtr(got.Queue, tt.wantDiff.Queue) {
				t.Errorf("Queue = %v, want %v", got.Queue, tt.wantDiff.Queue)
			}
		})
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Deletions as Null", func(t *testing.T) {
		s1 := &FlowExecution{Variables: map[string]string{"a": "1", "b": "2"}}
		s2 := &FlowExecution{Variables: map[string]string{"a": "1"}}
		diff := Diff(s1, s2)
		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if !strings.Contains(string(bytes), `"b":null`) {
			t.Errorf("JSON should contain 'b':null for deletion, got: %s", string(bytes))
		}
	})

	t.Run("Map omits untouched fields", func(t *testing.T) {
		diff := Diff(&FlowExecution{ConversationID: "c", CurrentNodeID: "a"}, &FlowExecution{ConversationID: "c", CurrentNodeID: "b"})
		m := diff.Map()
		if m["current_node_id"] != "b" {
			t.Errorf("current_node_id = %v, want b", m["current_node_id"])
		}
		if _, ok := m["status"]; ok {
			t.Errorf("status should be absent, got %v", m["status"])
		}
	})
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
