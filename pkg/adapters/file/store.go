package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aretw0/omnibot/pkg/domain"
)

// Executions and variables live in separate subdirectories, so a
// conversation id can never name another conversation's variables file.
const (
	execDir    = "exec"
	varsDir    = "vars"
	jsonSuffix = ".json"
	tmpPattern = ".*.tmp"
)

// Store implements ports.ExecutionStore using the local filesystem.
//
// Layout under BasePath:
//
//	exec/<conversation>.json   FlowExecution
//	vars/<conversation>.json   conversation variables
type Store struct {
	BasePath string

	// mu serializes variable read-modify-write within the process.
	mu sync.Mutex
}

// NewStore creates a Store rooted at basePath.
// If basePath is empty, it defaults to ".omnibot/executions".
func NewStore(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".omnibot", "executions")
	}
	return &Store{BasePath: basePath}
}

// Save persists the execution atomically.
func (s *Store) Save(ctx context.Context, conversationID string, exec *domain.FlowExecution) error {
	if err := checkID(conversationID); err != nil {
		return err
	}
	return s.writeJSON(execDir, conversationID, exec)
}

// Load retrieves the execution for a conversation.
func (s *Store) Load(ctx context.Context, conversationID string) (*domain.FlowExecution, error) {
	if err := checkID(conversationID); err != nil {
		return nil, err
	}

	var exec domain.FlowExecution
	found, err := s.readJSON(execDir, conversationID, &exec)
	if err != nil {
		return nil, fmt.Errorf("failed to load execution: %w", err)
	}
	if !found {
		return nil, domain.ErrExecutionNotFound
	}
	if exec.Variables == nil {
		exec.Variables = make(map[string]string)
	}
	return &exec, nil
}

// Delete removes the execution file and its variables.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	if err := checkID(conversationID); err != nil {
		return err
	}
	for _, dir := range []string{execDir, varsDir} {
		err := os.Remove(s.path(dir, conversationID))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete execution file: %w", err)
		}
	}
	return nil
}

// List returns the ids of all stored executions.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.BasePath, execDir))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, jsonSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, jsonSuffix))
	}
	return ids, nil
}

// AppendVariable upserts a conversation variable.
func (s *Store) AppendVariable(ctx context.Context, conversationID, name, value string) error {
	if err := checkID(conversationID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	vars := make(map[string]string)
	if _, err := s.readJSON(varsDir, conversationID, &vars); err != nil {
		return fmt.Errorf("failed to read variables: %w", err)
	}
	vars[name] = value
	return s.writeJSON(varsDir, conversationID, vars)
}

// Variables returns the conversation variables.
func (s *Store) Variables(ctx context.Context, conversationID string) (map[string]string, error) {
	if err := checkID(conversationID); err != nil {
		return nil, err
	}
	vars := make(map[string]string)
	if _, err := s.readJSON(varsDir, conversationID, &vars); err != nil {
		return nil, fmt.Errorf("failed to read variables: %w", err)
	}
	return vars, nil
}

func (s *Store) path(dir, conversationID string) string {
	return filepath.Join(s.BasePath, dir, conversationID+jsonSuffix)
}

func (s *Store) readJSON(dir, conversationID string, out any) (bool, error) {
	data, err := os.ReadFile(s.path(dir, conversationID))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// writeJSON writes to a temp file in the same directory, fsyncs it and renames it over the destination.
// Temp files end in .tmp, so List never mistakes them for executions.
func (s *Store) writeJSON(dir, conversationID string, v any) error {
	target := filepath.Join(s.BasePath, dir)
	if err := os.MkdirAll(target, 0755); err != nil {
		return fmt.Errorf("failed to ensure execution directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	tmpFile, err := os.CreateTemp(target, tmpPattern)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Windows refuses to rename over an existing file.
	destPath := s.path(dir, conversationID)
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to replace %s: %w", destPath, err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func checkID(conversationID string) error {
	if conversationID == "" {
		return fmt.Errorf("conversationID cannot be empty")
	}
	if strings.ContainsAny(conversationID, `/\`) || conversationID == "." || conversationID == ".." {
		return fmt.Errorf("invalid conversationID %q", conversationID)
	}
	return nil
}
