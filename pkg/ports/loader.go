package ports

import (
	"context"

	"github.com/aretw0/omnibot/pkg/domain"
)

// FlowLoader defines how the engine retrieves flow definitions.
// Implementations must return definitions that callers never mutate.
type FlowLoader interface {
	// Active returns the single flow currently marked active.
	// Returns domain.ErrNoActiveFlow when none is.
	Active(ctx context.Context) (*domain.FlowDefinition, error)

	// Flow returns a flow by id, active or not, so running conversations keep their graph.
	// Returns domain.ErrFlowNotFound when unknown.
	Flow(ctx context.Context, id string) (*domain.FlowDefinition, error)
}

// WriteActionCatalog resolves configured write actions.
type WriteActionCatalog interface {
	// WriteAction looks an action up by id or, failing that, by name.
	// Inactive actions are reported as domain.ErrWriteActionNotFound.
	WriteAction(ctx context.Context, idOrName string) (*domain.WriteAction, error)
}
