package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/aretw0/omnibot/pkg/domain"
	_ "github.com/lib/pq"
)

const (
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 25
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations.sql
var migrations string

// Store implements ports.ExecutionStore and ports.WriteActionCatalog on PostgreSQL.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for query failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open connects to dsn, tunes the pool and applies migrations.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	s, err := NewFromDB(ctx, db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewFromDB wraps an open database and applies migrations.
func NewFromDB(ctx context.Context, db *sql.DB, opts ...Option) (*Store, error) {
	s := &Store{db: db, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := db.ExecContext(ctx, migrations); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts the execution row.
func (s *Store) Save(ctx context.Context, conversationID string, exec *domain.FlowExecution) error {
	state, err := json.Marshal(exec)
	if err != nil {
		return fmt.Errorf("failed to marshal execution: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO flow_executions (conversation_id, flow_id, current_node_id, status, state, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (conversation_id)
		DO UPDATE SET
			flow_id = EXCLUDED.flow_id,
			current_node_id = EXCLUDED.current_node_id,
			status = EXCLUDED.status,
			state = EXCLUDED.state,
			updated_at = NOW()`,
		conversationID, exec.FlowID, exec.CurrentNodeID, string(exec.Status), state)
	if err != nil {
		s.logger.Error("postgres save failed", "conversation_id", conversationID, "err", err)
		return fmt.Errorf("failed to save execution %s: %w", conversationID, err)
	}
	return nil
}

// Load reads the execution row.
func (s *Store) Load(ctx context.Context, conversationID string) (*domain.FlowExecution, error) {
	var state []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM flow_executions WHERE conversation_id = $1`, conversationID).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrExecutionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load execution %s: %w", conversationID, err)
	}

	var exec domain.FlowExecution
	if err := json.Unmarshal(state, &exec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution %s: %w", conversationID, err)
	}
	if exec.Variables == nil {
		exec.Variables = make(map[string]string)
	}
	return &exec, nil
}

// Delete removes the execution and its variables in one transaction.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM conversation_variables WHERE conversation_id = $1`, conversationID); err != nil {
		return fmt.Errorf("failed to delete variables: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM flow_executions WHERE conversation_id = $1`, conversationID); err != nil {
		return fmt.Errorf("failed to delete execution: %w", err)
	}
	return tx.Commit()
}

// List returns the stored conversation ids, most recently updated first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT conversation_id FROM flow_executions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan execution id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AppendVariable upserts on (conversation_id, variable_name).
func (s *Store) AppendVariable(ctx context.Context, conversationID, name, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_variables (conversation_id, variable_name, variable_value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (conversation_id, variable_name)
		DO UPDATE SET variable_value = EXCLUDED.variable_value, updated_at = NOW()`,
		conversationID, name, value)
	if err != nil {
		s.logger.Error("postgres append variable failed", "conversation_id", conversationID, "variable", name, "err", err)
		return fmt.Errorf("failed to upsert variable %s: %w", name, err)
	}
	return nil
}

// Variables returns every variable of the conversation.
func (s *Store) Variables(ctx context.Context, conversationID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT variable_name, variable_value FROM conversation_variables WHERE conversation_id = $1`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query variables: %w", err)
	}
	defer rows.Close()

	vars := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan variable: %w", err)
		}
		vars[k] = v
	}
	return vars, rows.Err()
}
