package domain

import "fmt"

// NodeKind identifies the behavior of a flow node.
type NodeKind string

const (
	// KindSendMessage emits a fixed text and continues immediately.
	KindSendMessage NodeKind = "sendMessage"
	// KindMenuButtons emits a menu and halts until a button is chosen.
	KindMenuButtons NodeKind = "menuButtons"
	// KindCollectInfo asks for a value, validates it and stores it as a conversation variable.
	KindCollectInfo NodeKind = "collectInfo"
	// KindIntegration queries the ERP with a single (possibly collected) input.
	KindIntegration NodeKind = "integration"
	// KindExecuteWriteAction invokes a configured write action with a templated body.
	KindExecuteWriteAction NodeKind = "executeWriteAction"
	// KindTransfer hands the conversation to a human queue (terminal).
	KindTransfer NodeKind = "transfer"
)

// Kinds lists every supported node kind.
var Kinds = []NodeKind{
	KindSendMessage,
	KindMenuButtons,
	KindCollectInfo,
	KindIntegration,
	KindExecuteWriteAction,
	KindTransfer,
}

// FlowNode is one step of a flow. Data carries the kind-specific payload.
type FlowNode struct {
	ID   string   `json:"id" yaml:"id"`
	Kind NodeKind `json:"type" yaml:"type"`
	Data NodeData `json:"data" yaml:"data"`
}

// NodeData is the sealed sum of node payloads.
// Only the types declared in this package implement it.
type NodeData interface {
	nodeKind() NodeKind
}

// SendMessage emits Message verbatim.
type SendMessage struct {
	Message string `json:"message" mapstructure:"message"`
}

// MenuButtons emits Message with one button per label.
type MenuButtons struct {
	Message string   `json:"message" mapstructure:"message"`
	Buttons []string `json:"buttons" mapstructure:"buttons"`
}

// CollectInfo prompts for a value and stores it under VariableName.
type CollectInfo struct {
	UserMessage    string    `json:"userMessage" mapstructure:"userMessage"`
	ValidationType InputType `json:"validationType" mapstructure:"validationType"`
	VariableName   string    `json:"variableName" mapstructure:"variableName"`
	ErrorMessage   string    `json:"errorMessage,omitempty" mapstructure:"errorMessage"`
}

// Integration calls the named ERP action using the variable named Input.
type Integration struct {
	Action  string `json:"action" mapstructure:"action"`
	Input   string `json:"input,omitempty" mapstructure:"input"`
	Message string `json:"message,omitempty" mapstructure:"message"`
}

// ExecuteWriteAction invokes the write action identified by WriteActionID.
type ExecuteWriteAction struct {
	WriteActionID  string `json:"writeActionId" mapstructure:"writeActionId"`
	SuccessMessage string `json:"successMessage,omitempty" mapstructure:"successMessage"`
}

// Transfer hands the conversation to Queue.
type Transfer struct {
	Queue   string `json:"queue,omitempty" mapstructure:"queue"`
	Message string `json:"message,omitempty" mapstructure:"message"`
}

func (SendMessage) nodeKind() NodeKind        { return KindSendMessage }
func (MenuButtons) nodeKind() NodeKind        { return KindMenuButtons }
func (CollectInfo) nodeKind() NodeKind        { return KindCollectInfo }
func (Integration) nodeKind() NodeKind        { return KindIntegration }
func (ExecuteWriteAction) nodeKind() NodeKind { return KindExecuteWriteAction }
func (Transfer) nodeKind() NodeKind           { return KindTransfer }

// KindOf reports the kind carried by data.
func KindOf(data NodeData) NodeKind {
	if data == nil {
		return ""
	}
	return data.nodeKind()
}

// NewNode builds a node whose Kind always agrees with its payload.
func NewNode(id string, data NodeData) FlowNode {
	return FlowNode{ID: id, Kind: KindOf(data), Data: data}
}

// Validate checks that the node kind and payload agree.
func (n FlowNode) Validate() error {
	if n.ID == "" {
		return fmt.Errorf("node missing id")
	}
	if n.Data == nil {
		return fmt.Errorf("node %s has no data", n.ID)
	}
	if got := n.Data.nodeKind(); got != n.Kind {
		return fmt.Errorf("node %s declares kind %q but carries %q data", n.ID, n.Kind, got)
	}
	return nil
}

// ParseNodeKind maps a raw type string to a NodeKind.
func ParseNodeKind(raw string) (NodeKind, error) {
	for _, k := range Kinds {
		if string(k) == raw {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown node type %q", raw)
}
