package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aretw0/omnibot/pkg/domain"
)

const writeActionColumns = `id, name, http_method, endpoint, request_body_template, is_active, response_expr`

// WriteAction resolves an active write action by id, falling back to name.
func (s *Store) WriteAction(ctx context.Context, idOrName string) (*domain.WriteAction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+writeActionColumns+` FROM write_actions
		WHERE (id = $1 OR name = $1) AND is_active
		ORDER BY (id = $1) DESC
		LIMIT 1`, idOrName)

	var wa domain.WriteAction
	err := row.Scan(&wa.ID, &wa.Name, &wa.HTTPMethod, &wa.Endpoint, &wa.RequestBodyTemplate, &wa.Active, &wa.ResponseExpr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrWriteActionNotFound, idOrName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load write action %s: %w", idOrName, err)
	}
	return &wa, nil
}

// PutWriteAction inserts or replaces a write action.
func (s *Store) PutWriteAction(ctx context.Context, wa domain.WriteAction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO write_actions (`+writeActionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			http_method = EXCLUDED.http_method,
			endpoint = EXCLUDED.endpoint,
			request_body_template = EXCLUDED.request_body_template,
			is_active = EXCLUDED.is_active,
			response_expr = EXCLUDED.response_expr`,
		wa.ID, wa.Name, wa.Method(), wa.Endpoint, wa.RequestBodyTemplate, wa.Active, wa.ResponseExpr)
	if err != nil {
		return fmt.Errorf("failed to upsert write action %s: %w", wa.ID, err)
	}
	return nil
}

// ListWriteActions returns every write action ordered by name.
func (s *Store) ListWriteActions(ctx context.Context) ([]domain.WriteAction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+writeActionColumns+` FROM write_actions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list write actions: %w", err)
	}
	defer rows.Close()

	var out []domain.WriteAction
	for rows.Next() {
		var wa domain.WriteAction
		if err := rows.Scan(&wa.ID, &wa.Name, &wa.HTTPMethod, &wa.Endpoint, &wa.RequestBodyTemplate, &wa.Active, &wa.ResponseExpr); err != nil {
			return nil, fmt.Errorf("failed to scan write action: %w", err)
		}
		out = append(out, wa)
	}
	return out, rows.Err()
}
