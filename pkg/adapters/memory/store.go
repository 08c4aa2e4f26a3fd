package memory

import (
	"context"
	"sync"

	"github.com/aretw0/omnibot/pkg/domain"
)

// Store implements ports.ExecutionStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.FlowExecution
	vars map[string]map[string]string
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.FlowExecution),
		vars: make(map[string]map[string]string),
	}
}

// Save persists the execution in memory.
func (s *Store) Save(ctx context.Context, conversationID string, exec *domain.FlowExecution) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := exec.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[conversationID] = copied
	return nil
}

// Load retrieves the execution from memory.
func (s *Store) Load(ctx context.Context, conversationID string) (*domain.FlowExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exec, ok := s.data[conversationID]
	if !ok {
		return nil, domain.ErrExecutionNotFound
	}
	return exec.Snapshot(), nil
}

// Delete removes the execution and its variables.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, conversationID)
	delete(s.vars, conversationID)
	return nil
}

// List returns stored conversations.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}

// AppendVariable upserts a conversation variable.
func (s *Store) AppendVariable(ctx context.Context, conversationID, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vars, ok := s.vars[conversationID]
	if !ok {
		vars = make(map[string]string)
		s.vars[conversationID] = vars
	}
	vars[name] = value
	return nil
}

// Variables returns a copy of the conversation variables.
func (s *Store) Variables(ctx context.Context, conversationID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.vars[conversationID]))
	for k, v := range s.vars[conversationID] {
		out[k] = v
	}
	return out, nil
}
