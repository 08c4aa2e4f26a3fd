package runtime

import (
	"errors"
	"fmt"

	"github.com/aretw0/omnibot/pkg/domain"
)

const defaultCollectPrompt = "Por favor, forneça a informação solicitada:"

// Input is the customer reply being evaluated.
type Input struct {
	Text        string
	ButtonIndex *int
}

// PendingAction is an external call the engine must perform before evaluation resumes.
type PendingAction struct {
	NodeID string
	Kind   domain.NodeKind
	// Ref names the catalog entry: a write action id or an integration action name.
	Ref       string
	Variables map[string]string
}

// Step is the outcome of evaluating one node.
type Step struct {
	Responses []domain.BotResponse
	Execution *domain.FlowExecution

	// Continue asks the engine to enter Execution.CurrentNodeID without waiting for input.
	Continue bool

	// Action, when set, must be performed and fed back through Evaluate.
	Action *PendingAction

	// Collected holds variables written during this step.
	Collected map[string]string

	// Err is the recoverable failure behind an error or re-prompt response.
	Err error
}

// Halted reports whether the turn ends with this step.
func (s Step) Halted() bool {
	return s.Action == nil && (!s.Continue || s.Execution.Terminal())
}

// Evaluator maps (flow, execution, input, action result) to a Step.
// It performs no I/O and never mutates its arguments.
type Evaluator struct {
	messages domain.SystemMessages
}

// NewEvaluator creates an evaluator falling back on the given system messages.
func NewEvaluator(messages domain.SystemMessages) *Evaluator {
	return &Evaluator{messages: messages.Merge(domain.DefaultSystemMessages())}
}

// Evaluate runs the current node of exec.
//
//   - in == nil and result == nil: the node is being entered.
//   - in != nil: the customer replied to a node awaiting input.
//   - result != nil: the action requested by the previous step returned.
func (ev *Evaluator) Evaluate(flow *domain.FlowDefinition, exec *domain.FlowExecution, in *Input, result *domain.ActionResult) Step {
	next := exec.Snapshot()
	msgs := flow.Messages.Merge(ev.messages)

	node, ok := flow.Node(exec.CurrentNodeID)
	if !ok {
		// Marked failed so the customer can still ask for an agent.
		c := &evaluation{flow: flow, exec: next, msgs: msgs, step: Step{Execution: next}}
		c.fail(fmt.Errorf("node %s not found in flow %s", exec.CurrentNodeID, flow.ID))
		return c.step
	}

	c := &evaluation{flow: flow, node: node, exec: next, msgs: msgs, step: Step{Execution: next}}

	if result != nil {
		c.actionResult(*result)
		return c.step
	}

	switch data := node.Data.(type) {
	case domain.SendMessage:
		c.say(domain.ResponseMessage, data.Message)
		c.advance()
	case domain.MenuButtons:
		c.menu(data, in)
	case domain.CollectInfo:
		c.collect(data, in)
	case domain.Integration:
		c.integration(data, in)
	case domain.ExecuteWriteAction:
		c.writeAction(data)
	case domain.Transfer:
		c.transfer(data.Queue, data.Message)
	default:
		c.fail(fmt.Errorf("node %s has unsupported kind %q", node.ID, node.Kind))
	}
	return c.step
}

// Handoff transfers the conversation to queue (the default queue when empty)
// regardless of its current node.
func (ev *Evaluator) Handoff(flow *domain.FlowDefinition, exec *domain.FlowExecution, queue string) Step {
	next := exec.Snapshot()
	node, _ := flow.Node(exec.CurrentNodeID)
	c := &evaluation{flow: flow, node: node, exec: next, msgs: flow.Messages.Merge(ev.messages), step: Step{Execution: next}}
	c.exec.Failed = false
	c.transfer(queue, "")
	return c.step
}

// evaluation accumulates the Step of a single Evaluate call.
type evaluation struct {
	flow *domain.FlowDefinition
	node domain.FlowNode
	exec *domain.FlowExecution
	msgs domain.SystemMessages
	step Step
}

func (c *evaluation) respond(r domain.BotResponse) {
	r.ConversationID = c.exec.ConversationID
	if r.NextNodeID == "" {
		r.NextNodeID = c.exec.CurrentNodeID
	}
	c.step.Responses = append(c.step.Responses, r)
	c.step.Execution = c.exec
}

func (c *evaluation) say(kind domain.ResponseType, content string) {
	c.respond(domain.BotResponse{Type: kind, Content: content})
}

func (c *evaluation) await(kind domain.InputType) {
	c.exec.AwaitingInput = true
	c.exec.InputType = kind
	c.step.Execution = c.exec
}

func (c *evaluation) collectVar(name, value string) {
	c.exec.Variables[name] = value
	if c.step.Collected == nil {
		c.step.Collected = make(map[string]string)
	}
	c.step.Collected[name] = value
}

// advance follows the default edge, or transfers to the default queue when there is none.
func (c *evaluation) advance() {
	c.exec.AwaitingInput = false
	c.exec.InputType = ""
	c.exec.Failed = false

	edge, ok := defaultEdge(c.flow.Outgoing(c.node.ID))
	if !ok {
		c.transfer("", "")
		return
	}
	c.moveTo(edge.Target)
}

func (c *evaluation) moveTo(target string) {
	c.exec.CurrentNodeID = target
	c.exec.AwaitingInput = false
	c.exec.InputType = ""
	c.exec.History = append(c.exec.History, target)
	c.step.Execution = c.exec
	c.step.Continue = true
}

func (c *evaluation) transfer(queue, message string) {
	if queue == "" {
		queue = domain.DefaultQueue
	}
	if message == "" {
		message = c.msgs.Transfer
	}
	c.exec.Status = domain.StatusTransferred
	c.exec.Queue = queue
	c.exec.AwaitingInput = false
	c.exec.InputType = ""
	c.step.Continue = false
	c.respond(domain.BotResponse{Type: domain.ResponseTransfer, Content: message, TransferQueue: queue})
}

func (c *evaluation) fail(err error) {
	c.exec.Failed = true
	c.step.Err = err
	c.step.Continue = false
	c.say(domain.ResponseError, c.msgs.BotError)
}

func (c *evaluation) menu(data domain.MenuButtons, in *Input) {
	prompt := domain.BotResponse{
		Type:          domain.ResponseMenu,
		Content:       data.Message,
		Buttons:       append([]string(nil), data.Buttons...),
		RequiresInput: true,
		InputType:     domain.InputButton,
	}

	if in == nil || !c.exec.AwaitingInput {
		c.await(domain.InputButton)
		c.respond(prompt)
		return
	}

	index, ok := resolveChoice(data.Buttons, in)
	var edge domain.FlowEdge
	if ok {
		edge, ok = menuEdge(c.flow.Outgoing(c.node.ID), data.Buttons, index)
	}
	if !ok {
		c.step.Err = domain.ErrInvalidSelection
		prompt.Content = c.msgs.InvalidSelection
		c.respond(prompt)
		return
	}
	c.moveTo(edge.Target)
}

func (c *evaluation) collect(data domain.CollectInfo, in *Input) {
	kind := data.ValidationType
	if kind == "" {
		kind = domain.InputText
	}
	promptText := data.UserMessage
	if promptText == "" {
		promptText = defaultCollectPrompt
	}
	prompt := domain.BotResponse{
		Type:          domain.ResponseInputRequest,
		Content:       promptText,
		RequiresInput: true,
		InputType:     kind,
	}

	if in == nil || !c.exec.AwaitingInput {
		c.await(kind)
		c.respond(prompt)
		return
	}

	value, err := ValidateInput(c.node.ID, kind, in.Text)
	if err != nil {
		c.step.Err = err
		errText := data.ErrorMessage
		if errText == "" {
			errText = c.msgs.InvalidInput
		}
		prompt.Content = errText + "\n\n" + promptText
		c.respond(prompt)
		return
	}

	name := data.VariableName
	if name == "" {
		name = c.node.ID
	}
	c.collectVar(name, value)
	c.advance()
}

func (c *evaluation) integration(data domain.Integration, in *Input) {
	variable := data.Input
	if variable == "" {
		variable = domain.DefaultIntegrationInput
	}
	kind := inputTypeFor(variable)
	prompt := domain.BotResponse{
		Type:          domain.ResponseInputRequest,
		Content:       promptFor(variable),
		RequiresInput: true,
		InputType:     kind,
	}

	if in != nil && c.exec.AwaitingInput {
		value, err := ValidateInput(c.node.ID, kind, in.Text)
		if err != nil {
			c.step.Err = err
			prompt.Content = c.msgs.InvalidInput + "\n\n" + prompt.Content
			c.respond(prompt)
			return
		}
		c.collectVar(variable, value)
	}

	value, ok := c.exec.Variables[variable]
	if !ok {
		c.await(kind)
		c.respond(prompt)
		return
	}

	c.exec.AwaitingInput = false
	c.exec.InputType = ""
	c.request(domain.KindIntegration, data.Action, map[string]string{variable: value})
}

func (c *evaluation) writeAction(data domain.ExecuteWriteAction) {
	if data.WriteActionID == "" {
		c.fail(fmt.Errorf("node %s: %w: no write action configured", c.node.ID, domain.ErrWriteActionNotFound))
		return
	}
	c.request(domain.KindExecuteWriteAction, data.WriteActionID, c.exec.Variables)
}

func (c *evaluation) request(kind domain.NodeKind, ref string, vars map[string]string) {
	copied := make(map[string]string, len(vars))
	for k, v := range vars {
		copied[k] = v
	}
	c.step.Execution = c.exec
	c.step.Action = &PendingAction{NodeID: c.node.ID, Kind: kind, Ref: ref, Variables: copied}
}

// actionResult resumes an integration or write-action node after its call returned.
func (c *evaluation) actionResult(result domain.ActionResult) {
	if result.Err != nil || result.Response == nil || !result.Response.Success {
		c.actionFailed(result)
		return
	}

	var content string
	switch data := c.node.Data.(type) {
	case domain.Integration:
		content = firstNonEmpty(result.Response.Message, data.Message, c.msgs.QuerySuccess)
	case domain.ExecuteWriteAction:
		content = firstNonEmpty(data.SuccessMessage, result.Response.Message, c.msgs.ActionSuccess)
	default:
		content = firstNonEmpty(result.Response.Message, c.msgs.ActionSuccess)
	}
	c.say(domain.ResponseMessage, content)
	c.advance()
}

func (c *evaluation) actionFailed(result domain.ActionResult) {
	err := result.Err
	if err == nil {
		err = &domain.ActionError{Action: c.node.ID, Message: "action reported failure"}
		if result.Response != nil {
			err = &domain.ActionError{Action: c.node.ID, Status: result.Response.StatusCode, Message: result.Response.Message}
		}
	}

	c.exec.Failed = true
	c.step.Err = err
	c.step.Continue = false

	content := c.msgs.BotError
	var actionErr *domain.ActionError
	if errors.As(err, &actionErr) && actionErr.Message != "" {
		content = actionErr.Message + "\n\n" + content
	}

	r := domain.BotResponse{Type: domain.ResponseError, Content: content}

	// Integrations ask for their input again so a mistyped value can be corrected.
	if data, ok := c.node.Data.(domain.Integration); ok {
		variable := data.Input
		if variable == "" {
			variable = domain.DefaultIntegrationInput
		}
		kind := inputTypeFor(variable)
		c.await(kind)
		r.RequiresInput = true
		r.InputType = kind
	}
	c.respond(r)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
