package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/omnibot/pkg/domain"
)

// Catalog implements ports.WriteActionCatalog in memory.
type Catalog struct {
	mu      sync.RWMutex
	actions []domain.WriteAction
}

// NewCatalog creates a catalog with the given actions.
func NewCatalog(actions ...domain.WriteAction) *Catalog {
	return &Catalog{actions: append([]domain.WriteAction(nil), actions...)}
}

// Put adds or replaces an action by id.
func (c *Catalog) Put(action domain.WriteAction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, a := range c.actions {
		if a.ID == action.ID {
			c.actions[i] = action
			return
		}
	}
	c.actions = append(c.actions, action)
}

// List returns every action, active or not.
func (c *Catalog) List() []domain.WriteAction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.WriteAction(nil), c.actions...)
}

// WriteAction resolves by id first, then by name.
func (c *Catalog) WriteAction(ctx context.Context, idOrName string) (*domain.WriteAction, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	match := func(pred func(domain.WriteAction) bool) *domain.WriteAction {
		for _, a := range c.actions {
			if pred(a) {
				found := a
				return &found
			}
		}
		return nil
	}

	found := match(func(a domain.WriteAction) bool { return a.ID == idOrName })
	if found == nil {
		found = match(func(a domain.WriteAction) bool { return a.Name == idOrName })
	}
	if found == nil || !found.Active {
		return nil, fmt.Errorf("%w: %s", domain.ErrWriteActionNotFound, idOrName)
	}
	return found, nil
}
