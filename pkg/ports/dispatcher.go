package ports

import (
	"context"

	"github.com/aretw0/omnibot/pkg/domain"
)

// ActionClient invokes write actions against the ERP.
// It never retries; failures are reported as *domain.ActionError or *domain.TemplateError.
type ActionClient interface {
	Invoke(ctx context.Context, action domain.WriteAction, variables map[string]string) (*domain.ERPResponse, error)
}

// EventPublisher is how the engine emits conversation events.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// EventSink delivers events to one transport (SSE, NATS, logs).
// Deliveries may repeat; sinks must tolerate duplicates.
type EventSink interface {
	Name() string
	Deliver(ctx context.Context, event domain.Event) error
}
