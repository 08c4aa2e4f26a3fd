package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/omnibot/pkg/domain"
	"github.com/aretw0/omnibot/pkg/ports"
)

// Masked replaces the value of a masked variable.
const Masked = "***"

type piiMiddleware struct {
	next     ports.ExecutionStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks variables whose names match
// any pattern once a conversation is closed. Open and transferred conversations
// keep their values, since write actions and agents still need them.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid PII pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.ExecutionStore) ports.ExecutionStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, conversationID string, exec *domain.FlowExecution) error {
	if exec.Status != domain.StatusClosed {
		return m.next.Save(ctx, conversationID, exec)
	}

	// Work on a copy so the caller's execution keeps its values.
	masked := exec.Snapshot()
	for name := range masked.Variables {
		if m.sensitive(name) {
			masked.Variables[name] = Masked
			if err := m.next.AppendVariable(ctx, conversationID, name, Masked); err != nil {
				return err
			}
		}
	}
	return m.next.Save(ctx, conversationID, masked)
}

func (m *piiMiddleware) Load(ctx context.Context, conversationID string) (*domain.FlowExecution, error) {
	return m.next.Load(ctx, conversationID)
}

func (m *piiMiddleware) Delete(ctx context.Context, conversationID string) error {
	return m.next.Delete(ctx, conversationID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) AppendVariable(ctx context.Context, conversationID, name, value string) error {
	return m.next.AppendVariable(ctx, conversationID, name, value)
}

func (m *piiMiddleware) Variables(ctx context.Context, conversationID string) (map[string]string, error) {
	return m.next.Variables(ctx, conversationID)
}

func (m *piiMiddleware) sensitive(name string) bool {
	for _, p := range m.patterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}
