package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/omnibot/internal/validator"
	"github.com/aretw0/omnibot/pkg/domain"
)

// Loader implements ports.FlowLoader using an in-memory registry.
// At most one flow is active at a time.
type Loader struct {
	mu     sync.RWMutex
	flows  map[string]*domain.FlowDefinition
	active string
}

// NewLoader creates a loader holding the given flows.
// The first flow marked Active becomes the active one.
func NewLoader(flows ...*domain.FlowDefinition) (*Loader, error) {
	l := &Loader{flows: make(map[string]*domain.FlowDefinition)}
	for _, f := range flows {
		if err := l.Register(f); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Register adds or replaces a flow. If it is marked Active and no flow is active yet, it becomes active.
// Flows with edges to missing nodes or malformed node payloads are rejected.
func (l *Loader) Register(f *domain.FlowDefinition) error {
	if f == nil || f.ID == "" {
		return fmt.Errorf("flow missing id")
	}
	if err := validator.ValidateStructure(f); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.flows[f.ID] = f
	if f.Active && l.active == "" {
		l.active = f.ID
	}
	return nil
}

// Activate marks id as the single active flow. New conversations start on it;
// running conversations keep the flow they started on.
func (l *Loader) Activate(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.flows[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrFlowNotFound, id)
	}
	l.active = id
	return nil
}

// Active returns the active flow.
func (l *Loader) Active(ctx context.Context) (*domain.FlowDefinition, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.active == "" {
		return nil, domain.ErrNoActiveFlow
	}
	return l.flows[l.active], nil
}

// Flow returns a flow by id.
func (l *Loader) Flow(ctx context.Context, id string) (*domain.FlowDefinition, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	f, ok := l.flows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrFlowNotFound, id)
	}
	return f, nil
}
