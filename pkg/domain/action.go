package domain

// ResponseType classifies what the channel adapter should render.
type ResponseType string

const (
	ResponseMessage      ResponseType = "message"
	ResponseMenu         ResponseType = "menu"
	ResponseInputRequest ResponseType = "input_request"
	ResponseTransfer     ResponseType = "transfer"
	ResponseError        ResponseType = "error"
)

// InputType is the kind of value a node expects from the customer.
type InputType string

const (
	InputText  InputType = "text"
	InputEmail InputType = "email"
	InputPhone InputType = "phone"
	InputCPF   InputType = "cpf"
	// InputButton is the expectation of a menu node.
	InputButton InputType = "button"
)

// BotResponse is the engine output delivered to the customer by the channel adapter.
type BotResponse struct {
	Type           ResponseType `json:"type"`
	Content        string       `json:"content"`
	Buttons        []string     `json:"buttons,omitempty"`
	NextNodeID     string       `json:"next_node_id,omitempty"`
	RequiresInput  bool         `json:"requires_input,omitempty"`
	InputType      InputType    `json:"input_type,omitempty"`
	TransferQueue  string       `json:"transfer_queue,omitempty"`
	ConversationID string       `json:"conversation_id,omitempty"`
}

// MessageType distinguishes free text from button presses.
type MessageType string

const (
	MessageText   MessageType = "TEXT"
	MessageButton MessageType = "BUTTON"
)

// InboundMessage is what a channel adapter (webchat, WhatsApp) delivers.
type InboundMessage struct {
	ConversationID string      `json:"conversation_id"`
	Content        string      `json:"content"`
	MessageType    MessageType `json:"message_type"`
	ButtonIndex    *int        `json:"button_index,omitempty"`
}

// IsEmpty reports whether the message carries neither text nor a button.
func (m InboundMessage) IsEmpty() bool {
	return m.ButtonIndex == nil && m.Content == ""
}
