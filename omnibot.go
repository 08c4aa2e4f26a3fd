package omnibot

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/omnibot/internal/runtime"
	"github.com/aretw0/omnibot/internal/validator"
	"github.com/aretw0/omnibot/pkg/adapters/file"
	"github.com/aretw0/omnibot/pkg/adapters/memory"
	"github.com/aretw0/omnibot/pkg/domain"
	"github.com/aretw0/omnibot/pkg/ports"
)

// Version is the release of the omnibot module.
const Version = "0.4.0"

// Engine is the high-level entry point of the library.
// It wraps the internal runtime and implements ports.ConversationEngine.
type Engine struct {
	runtime *runtime.Engine
	loader  ports.FlowLoader
	store   ports.ExecutionStore
	catalog ports.WriteActionCatalog

	activeFlow  string
	runtimeOpts []runtime.EngineOption
	hooks       []domain.LifecycleHooks
	logger      *slog.Logger
	Name        string
}

var _ ports.ConversationEngine = (*Engine)(nil)

// Option configures the Engine.
type Option func(*Engine)

// WithLoader injects a flow loader, bypassing the file loader.
func WithLoader(l ports.FlowLoader) Option {
	return func(e *Engine) { e.loader = l }
}

// WithActiveFlow selects the active flow when loading from files.
func WithActiveFlow(id string) Option {
	return func(e *Engine) { e.activeFlow = id }
}

// WithStore sets the execution store (default: in memory).
func WithStore(s ports.ExecutionStore) Option {
	return func(e *Engine) { e.store = s }
}

// WithCatalog sets where write actions and ERP queries are resolved.
func WithCatalog(c ports.WriteActionCatalog) Option {
	return func(e *Engine) {
		e.catalog = c
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithCatalog(c))
	}
}

// WithActionClient sets the client used for integration and write-action nodes.
func WithActionClient(c ports.ActionClient) Option {
	return func(e *Engine) { e.runtimeOpts = append(e.runtimeOpts, runtime.WithActionClient(c)) }
}

// WithPublisher sets the destination of conversation events.
func WithPublisher(p ports.EventPublisher) Option {
	return func(e *Engine) { e.runtimeOpts = append(e.runtimeOpts, runtime.WithPublisher(p)) }
}

// WithVariableStore persists collected variables outside the execution store.
func WithVariableStore(vs ports.VariableStore) Option {
	return func(e *Engine) { e.runtimeOpts = append(e.runtimeOpts, runtime.WithVariableStore(vs)) }
}

// WithLocker serializes turns across processes.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) { e.runtimeOpts = append(e.runtimeOpts, runtime.WithLocker(l)) }
}

// WithLifecycleHooks registers observability hooks. It may be given more than once.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = append(e.hooks, hooks) }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithSystemMessages overrides the default bot texts.
func WithSystemMessages(m domain.SystemMessages) Option {
	return func(e *Engine) { e.runtimeOpts = append(e.runtimeOpts, runtime.WithSystemMessages(m)) }
}

// WithMaxAutoSteps bounds how many nodes one turn may traverse.
func WithMaxAutoSteps(n int) Option {
	return func(e *Engine) { e.runtimeOpts = append(e.runtimeOpts, runtime.WithMaxAutoSteps(n)) }
}

// New initializes an Engine. Flows are read from flowsPath (a file or a
// directory) unless WithLoader is given, in which case flowsPath may be empty.
func New(flowsPath string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.loader == nil {
		if flowsPath == "" {
			return nil, fmt.Errorf("flowsPath is required when no custom loader is provided")
		}
		loader, err := file.NewLoader(flowsPath, eng.activeFlow)
		if err != nil {
			return nil, fmt.Errorf("failed to load flows: %w", err)
		}
		eng.loader = loader
	}
	if flowsPath != "" {
		eng.Name = filepath.Base(flowsPath)
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.logger == nil {
		eng.logger = slog.New(slog.DiscardHandler)
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("flows", eng.Name)
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(ChainHooks(eng.hooks...)),
	}
	runtimeOpts = append(runtimeOpts, eng.runtimeOpts...)
	eng.runtime = runtime.NewEngine(eng.loader, eng.store, runtimeOpts...)
	return eng, nil
}

// Start opens a conversation on the active flow. An empty id is generated.
func (e *Engine) Start(ctx context.Context, conversationID string) (*domain.BotResponse, error) {
	return e.runtime.Start(ctx, conversationID)
}

// HandleMessage processes one inbound customer message.
func (e *Engine) HandleMessage(ctx context.Context, msg domain.InboundMessage) (*domain.BotResponse, error) {
	return e.runtime.HandleMessage(ctx, msg)
}

// Assign hands a conversation to an agent.
func (e *Engine) Assign(ctx context.Context, conversationID, agentID string) error {
	return e.runtime.Assign(ctx, conversationID, agentID)
}

// Close finishes a conversation.
func (e *Engine) Close(ctx context.Context, conversationID string) error {
	return e.runtime.Close(ctx, conversationID)
}

// Execution returns the stored state of a conversation.
func (e *Engine) Execution(ctx context.Context, conversationID string) (*domain.FlowExecution, error) {
	return e.runtime.Execution(ctx, conversationID)
}

// ActiveFlow returns the flow new conversations start on.
func (e *Engine) ActiveFlow(ctx context.Context) (*domain.FlowDefinition, error) {
	return e.runtime.ActiveFlow(ctx)
}

// Loader returns the flow loader in use.
func (e *Engine) Loader() ports.FlowLoader {
	return e.loader
}

// Store returns the execution store in use.
func (e *Engine) Store() ports.ExecutionStore {
	return e.store
}

// Validate checks the active flow's structure and, when a listing catalog is
// configured, the write actions it references.
func (e *Engine) Validate(ctx context.Context) error {
	flow, err := e.loader.Active(ctx)
	if err != nil {
		return err
	}
	if err := validator.ValidateFlow(flow); err != nil {
		return err
	}
	if lister, ok := e.catalog.(interface{ List() []domain.WriteAction }); ok {
		return validator.ValidateWriteActions(flow, lister.List())
	}
	return nil
}

// ChainHooks merges several hook sets; each callback runs in order.
func ChainHooks(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range all {
		if h.OnNodeEnter != nil {
			prev := out.OnNodeEnter
			out.OnNodeEnter = func(ctx context.Context, e *domain.NodeEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnNodeEnter(ctx, e)
			}
		}
		if h.OnActionCall != nil {
			prev := out.OnActionCall
			out.OnActionCall = func(ctx context.Context, e *domain.ActionEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnActionCall(ctx, e)
			}
		}
		if h.OnActionReturn != nil {
			prev := out.OnActionReturn
			out.OnActionReturn = func(ctx context.Context, e *domain.ActionEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnActionReturn(ctx, e)
			}
		}
		if h.OnTurn != nil {
			prev := out.OnTurn
			out.OnTurn = func(ctx context.Context, e *domain.TurnEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnTurn(ctx, e)
			}
		}
		if h.OnTransfer != nil {
			prev := out.OnTransfer
			out.OnTransfer = func(ctx context.Context, conversationID, queue string) {
				if prev != nil {
					prev(ctx, conversationID, queue)
				}
				h.OnTransfer(ctx, conversationID, queue)
			}
		}
	}
	return out
}
