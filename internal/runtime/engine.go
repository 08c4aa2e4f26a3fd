package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/omnibot/internal/logging"
	"github.com/aretw0/omnibot/pkg/domain"
	"github.com/aretw0/omnibot/pkg/ports"
	"github.com/aretw0/omnibot/pkg/session"
	"github.com/google/uuid"
)

// DefaultMaxAutoSteps bounds how many nodes one turn may enter without customer input.
const DefaultMaxAutoSteps = 32

// Engine orchestrates the evaluator, the execution store and the action client
// for every inbound message. Turns of one conversation are serialized.
type Engine struct {
	loader    ports.FlowLoader
	sessions  *session.Manager
	store     ports.ExecutionStore
	variables ports.VariableStore
	actions   ports.ActionClient
	catalog   ports.WriteActionCatalog
	publisher ports.EventPublisher
	locker    ports.DistributedLocker

	evaluator *Evaluator
	messages  domain.SystemMessages
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	maxSteps  int
	now       func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithActionClient sets the client used by integration and write-action nodes.
func WithActionClient(client ports.ActionClient) EngineOption {
	return func(e *Engine) {
		e.actions = client
	}
}

// WithCatalog sets where write actions are resolved.
func WithCatalog(catalog ports.WriteActionCatalog) EngineOption {
	return func(e *Engine) {
		e.catalog = catalog
	}
}

// WithPublisher sets the destination of conversation events.
func WithPublisher(p ports.EventPublisher) EngineOption {
	return func(e *Engine) {
		e.publisher = p
	}
}

// WithVariableStore mirrors collected variables into a dedicated store
// (the execution store receives them when unset).
func WithVariableStore(vs ports.VariableStore) EngineOption {
	return func(e *Engine) {
		e.variables = vs
	}
}

// WithLocker serializes turns across replicas.
func WithLocker(l ports.DistributedLocker) EngineOption {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSystemMessages overrides the default texts.
func WithSystemMessages(m domain.SystemMessages) EngineOption {
	return func(e *Engine) {
		e.messages = m
	}
}

// WithMaxAutoSteps overrides DefaultMaxAutoSteps.
func WithMaxAutoSteps(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithClock replaces time.Now for event timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an engine over a flow loader and an execution store.
func NewEngine(loader ports.FlowLoader, store ports.ExecutionStore, opts ...EngineOption) *Engine {
	e := &Engine{
		loader:   loader,
		store:    store,
		messages: domain.DefaultSystemMessages(),
		logger:   logging.NewNop(),
		maxSteps: DefaultMaxAutoSteps,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.variables == nil {
		e.variables = store
	}

	sessionOpts := []session.Option{session.WithLogger(e.logger)}
	if e.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(e.locker))
	}
	e.sessions = session.NewManager(store, sessionOpts...)
	e.evaluator = NewEvaluator(e.messages)
	return e
}

// ActiveFlow returns the flow new conversations start on.
func (e *Engine) ActiveFlow(ctx context.Context) (*domain.FlowDefinition, error) {
	return e.loader.Active(ctx)
}

// Execution returns the stored execution of a conversation.
func (e *Engine) Execution(ctx context.Context, conversationID string) (*domain.FlowExecution, error) {
	return e.sessions.Load(ctx, conversationID)
}

// Start opens a conversation on the active flow and returns its first response.
// An empty id is replaced by a generated one.
func (e *Engine) Start(ctx context.Context, conversationID string) (*domain.BotResponse, error) {
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	started := e.now()
	var out *turnOutcome
	err := e.sessions.WithLock(ctx, conversationID, func(ctx context.Context) error {
		_, err := e.store.Load(ctx, conversationID)
		if err == nil {
			return fmt.Errorf("%w: %s", domain.ErrConversationExists, conversationID)
		}
		if !errors.Is(err, domain.ErrExecutionNotFound) {
			return fmt.Errorf("failed to load execution: %w", err)
		}
		out, err = e.begin(ctx, conversationID)
		return err
	})
	e.emitTurn(ctx, conversationID, out, started, err)
	if err != nil {
		return nil, err
	}
	return out.response, nil
}

// HandleMessage processes one inbound message.
// Conversations without an execution are started on the active flow; conversations
// already transferred or closed are rejected with domain.ErrNotBotHandled.
func (e *Engine) HandleMessage(ctx context.Context, msg domain.InboundMessage) (*domain.BotResponse, error) {
	if msg.ConversationID == "" {
		return nil, fmt.Errorf("message missing conversation id")
	}

	started := e.now()
	var out *turnOutcome
	err := e.sessions.WithLock(ctx, msg.ConversationID, func(ctx context.Context) error {
		exec, err := e.store.Load(ctx, msg.ConversationID)
		if errors.Is(err, domain.ErrExecutionNotFound) {
			out, err = e.begin(ctx, msg.ConversationID)
			return err
		}
		if err != nil {
			return fmt.Errorf("failed to load execution: %w", err)
		}
		if exec.Terminal() {
			return fmt.Errorf("%w: %s is %s", domain.ErrNotBotHandled, exec.ConversationID, exec.Status)
		}

		flow, err := e.loader.Flow(ctx, exec.FlowID)
		if err != nil {
			return fmt.Errorf("failed to load flow %s: %w", exec.FlowID, err)
		}

		out, err = e.turn(ctx, flow, exec, msg)
		return err
	})
	e.emitTurn(ctx, msg.ConversationID, out, started, err)
	if err != nil {
		return nil, err
	}
	return out.response, nil
}

// Assign records the agent handling a conversation. A conversation still
// handled by the bot leaves bot handling when an agent picks it up.
func (e *Engine) Assign(ctx context.Context, conversationID, agentID string) error {
	if agentID == "" {
		return fmt.Errorf("agent id is required")
	}
	return e.sessions.WithLock(ctx, conversationID, func(ctx context.Context) error {
		exec, err := e.store.Load(ctx, conversationID)
		if err != nil {
			return err
		}
		if exec.Status == domain.StatusClosed {
			return fmt.Errorf("%w: %s", domain.ErrConversationClosed, conversationID)
		}

		next := exec.Snapshot()
		next.AssigneeID = agentID
		next.AwaitingInput = false
		next.InputType = ""
		if next.Status == domain.StatusBotActive {
			next.Status = domain.StatusTransferred
		}
		if next.Queue == "" {
			next.Queue = domain.DefaultQueue
		}
		if err := e.store.Save(ctx, conversationID, next); err != nil {
			return fmt.Errorf("failed to save execution: %w", err)
		}

		e.logger.InfoContext(ctx, "conversation assigned", "conversation_id", conversationID, "agent_id", agentID)
		e.publish(ctx, domain.EventConversationAssigned, conversationID, map[string]any{
			"agent_id": agentID,
			"queue":    next.Queue,
			"status":   string(next.Status),
		})
		return nil
	})
}

// Close finishes a conversation. Closing twice is a no-op.
func (e *Engine) Close(ctx context.Context, conversationID string) error {
	return e.sessions.WithLock(ctx, conversationID, func(ctx context.Context) error {
		exec, err := e.store.Load(ctx, conversationID)
		if err != nil {
			return err
		}
		if exec.Status == domain.StatusClosed {
			return nil
		}

		next := exec.Snapshot()
		previous := next.Status
		next.Status = domain.StatusClosed
		next.AwaitingInput = false
		next.InputType = ""
		if err := e.store.Save(ctx, conversationID, next); err != nil {
			return fmt.Errorf("failed to save execution: %w", err)
		}

		e.logger.InfoContext(ctx, "conversation closed", "conversation_id", conversationID)
		e.publish(ctx, domain.EventConversationClosed, conversationID, map[string]any{
			"previous_status": string(previous),
		})
		return nil
	})
}

// turnOutcome is what one serialized turn produced.
type turnOutcome struct {
	response *domain.BotResponse
	err      error
}

// begin creates the execution of a new conversation and runs its first turn.
// The caller holds the conversation lock.
func (e *Engine) begin(ctx context.Context, conversationID string) (*turnOutcome, error) {
	flow, err := e.loader.Active(ctx)
	if err != nil {
		return nil, err
	}
	start, ok := flow.StartNode()
	if !ok {
		return nil, fmt.Errorf("flow %s has no nodes", flow.ID)
	}

	exec := domain.NewExecution(conversationID, flow.ID, start.ID)
	e.logger.InfoContext(ctx, "conversation started", "conversation_id", conversationID, "flow_id", flow.ID, "start", start.ID)
	e.publish(ctx, domain.EventNewConversation, conversationID, map[string]any{
		"flow_id":         flow.ID,
		"current_node_id": start.ID,
		"status":          string(exec.Status),
	})

	var lead []domain.BotResponse
	if start.Kind != domain.KindSendMessage {
		welcome := flow.Messages.Merge(e.messages).Welcome
		if welcome != "" {
			lead = append(lead, domain.BotResponse{Type: domain.ResponseMessage, Content: welcome, ConversationID: conversationID})
		}
	}

	e.emitNodeEnter(ctx, conversationID, start)
	step := e.evaluator.Evaluate(flow, exec, nil, nil)
	step.Responses = append(lead, step.Responses...)
	return e.run(ctx, flow, exec, step)
}

// turn applies one customer message to an existing execution.
func (e *Engine) turn(ctx context.Context, flow *domain.FlowDefinition, exec *domain.FlowExecution, msg domain.InboundMessage) (*turnOutcome, error) {
	current := exec.Snapshot()
	current.Turn++
	in := &Input{Text: msg.Content, ButtonIndex: msg.ButtonIndex}

	var step Step
	switch {
	case current.Failed && wantsHuman(msg.Content):
		e.logger.InfoContext(ctx, "customer asked for an agent after a failure", "conversation_id", current.ConversationID)
		step = e.evaluator.Handoff(flow, current, domain.DefaultQueue)
	case current.AwaitingInput:
		step = e.evaluator.Evaluate(flow, current, in, nil)
	default:
		// Retry of a failed action node, or re-entry of a node that did not wait.
		step = e.evaluator.Evaluate(flow, current, nil, nil)
	}
	return e.run(ctx, flow, exec, step)
}

// run drives steps until the turn halts, performs pending actions, then persists.
func (e *Engine) run(ctx context.Context, flow *domain.FlowDefinition, before *domain.FlowExecution, step Step) (*turnOutcome, error) {
	var (
		responses []domain.BotResponse
		collected = make(map[string]string)
		lastErr   error
		entered   int
	)

	absorb := func(s Step) {
		responses = append(responses, s.Responses...)
		for k, v := range s.Collected {
			collected[k] = v
		}
		if s.Err != nil {
			lastErr = s.Err
		}
	}

	for {
		absorb(step)

		if step.Action != nil {
			result := e.perform(ctx, step.Execution, step.Action)
			step = e.evaluator.Evaluate(flow, step.Execution, nil, &result)
			continue
		}
		if step.Halted() {
			break
		}

		entered++
		if entered > e.maxSteps {
			e.logger.ErrorContext(ctx, "auto-advance limit reached, handing off",
				"conversation_id", before.ConversationID,
				"node_id", step.Execution.CurrentNodeID,
				"limit", e.maxSteps,
			)
			step = e.evaluator.Handoff(flow, step.Execution, domain.DefaultQueue)
			absorb(step)
			break
		}

		if node, ok := flow.Node(step.Execution.CurrentNodeID); ok {
			e.emitNodeEnter(ctx, before.ConversationID, node)
		}
		step = e.evaluator.Evaluate(flow, step.Execution, nil, nil)
	}

	after := step.Execution
	if err := e.persist(ctx, after, collected); err != nil {
		return nil, err
	}
	e.notify(ctx, before, after)

	return &turnOutcome{response: mergeResponses(after.ConversationID, responses), err: lastErr}, nil
}

// persist stores variables then the execution. Nothing is written before every action has returned.
func (e *Engine) persist(ctx context.Context, exec *domain.FlowExecution, collected map[string]string) error {
	names := make([]string, 0, len(collected))
	for name := range collected {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := e.variables.AppendVariable(ctx, exec.ConversationID, name, collected[name]); err != nil {
			return fmt.Errorf("failed to store variable %s: %w", name, err)
		}
	}
	if err := e.store.Save(ctx, exec.ConversationID, exec); err != nil {
		return fmt.Errorf("failed to save execution: %w", err)
	}
	return nil
}

// perform resolves and invokes a pending action.
func (e *Engine) perform(ctx context.Context, exec *domain.FlowExecution, pending *PendingAction) domain.ActionResult {
	if e.actions == nil || e.catalog == nil {
		return domain.ActionResult{Err: &domain.ActionError{Action: pending.Ref, Message: "external actions are not configured"}}
	}

	action, err := e.catalog.WriteAction(ctx, pending.Ref)
	if err != nil {
		e.logger.WarnContext(ctx, "write action unavailable", "conversation_id", exec.ConversationID, "ref", pending.Ref, "err", err)
		return domain.ActionResult{Err: err}
	}

	event := &domain.ActionEvent{ConversationID: exec.ConversationID, NodeID: pending.NodeID, Action: pending.Ref}
	if e.hooks.OnActionCall != nil {
		e.hooks.OnActionCall(ctx, event)
	}

	start := time.Now()
	resp, err := e.actions.Invoke(ctx, *action, pending.Variables)

	event.Duration = time.Since(start)
	event.IsError = err != nil || resp == nil || !resp.Success
	if e.hooks.OnActionReturn != nil {
		e.hooks.OnActionReturn(ctx, event)
	}
	e.logger.DebugContext(ctx, "action performed",
		"conversation_id", exec.ConversationID,
		"node_id", pending.NodeID,
		"action", pending.Ref,
		"duration", event.Duration,
		"is_error", event.IsError,
	)
	return domain.ActionResult{Response: resp, Err: err}
}

// notify publishes the state diff of a turn and signals transfers.
func (e *Engine) notify(ctx context.Context, before, after *domain.FlowExecution) {
	if diff := domain.Diff(before, after); diff != nil {
		e.publish(ctx, domain.EventConversationUpdated, after.ConversationID, diff.Map())
	}
	if after.Status == domain.StatusTransferred && before.Status != domain.StatusTransferred {
		e.logger.InfoContext(ctx, "conversation transferred", "conversation_id", after.ConversationID, "queue", after.Queue)
		if e.hooks.OnTransfer != nil {
			e.hooks.OnTransfer(ctx, after.ConversationID, after.Queue)
		}
	}
}

func (e *Engine) publish(ctx context.Context, kind domain.EventType, conversationID string, payload map[string]any) {
	if e.publisher == nil {
		return
	}
	event := domain.Event{
		ID:             uuid.NewString(),
		Type:           kind,
		ConversationID: conversationID,
		Timestamp:      e.now().UTC(),
		Payload:        payload,
	}
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.WarnContext(ctx, "failed to publish event", "type", kind, "conversation_id", conversationID, "err", err)
	}
}

func (e *Engine) emitNodeEnter(ctx context.Context, conversationID string, node domain.FlowNode) {
	if e.hooks.OnNodeEnter != nil {
		e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{ConversationID: conversationID, NodeID: node.ID, Kind: node.Kind})
	}
}

func (e *Engine) emitTurn(ctx context.Context, conversationID string, out *turnOutcome, started time.Time, err error) {
	if e.hooks.OnTurn == nil {
		return
	}
	event := &domain.TurnEvent{ConversationID: conversationID, Duration: e.now().Sub(started), Err: err}
	if out != nil {
		if out.response != nil {
			event.Response = out.response.Type
		}
		if event.Err == nil {
			event.Err = out.err
		}
	}
	e.hooks.OnTurn(ctx, event)
}

// mergeResponses folds the responses of one turn into the single response a channel delivers.
// Contents are joined by a blank line; everything else comes from the last response.
func mergeResponses(conversationID string, responses []domain.BotResponse) *domain.BotResponse {
	if len(responses) == 0 {
		return &domain.BotResponse{Type: domain.ResponseMessage, ConversationID: conversationID}
	}

	merged := responses[len(responses)-1]
	parts := make([]string, 0, len(responses))
	for _, r := range responses {
		if r.Content != "" {
			parts = append(parts, r.Content)
		}
	}
	merged.Content = strings.Join(parts, "\n\n")
	merged.ConversationID = conversationID
	return &merged
}
