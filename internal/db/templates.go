package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ListActiveTemplates retrieves all active prompt templates. This is the bulk
// fetch behind the prompt resolver's cache refresh.
func (db *DB) ListActiveTemplates(ctx context.Context) ([]PromptTemplate, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, name, category, template, active, description, created_at, updated_at
		 FROM prompt_templates WHERE active = TRUE ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active templates: %w", err)
	}
	defer rows.Close()

	return scanTemplates(rows)
}

// ListTemplates retrieves all prompt templates, active or not.
func (db *DB) ListTemplates(ctx context.Context) ([]PromptTemplate, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, name, category, template, active, description, created_at, updated_at
		 FROM prompt_templates ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	return scanTemplates(rows)
}

func scanTemplates(rows pgx.Rows) ([]PromptTemplate, error) {
	var templates []PromptTemplate
	for rows.Next() {
		var t PromptTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.Category, &t.Template, &t.Active,
			&t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, nil
}

// GetTemplateByName retrieves a template by unique name.
// Returns (nil, nil) when not found.
func (db *DB) GetTemplateByName(ctx context.Context, name string) (*PromptTemplate, error) {
	var t PromptTemplate
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, category, template, active, description, created_at, updated_at
		 FROM prompt_templates WHERE name = $1`,
		name,
	).Scan(&t.ID, &t.Name, &t.Category, &t.Template, &t.Active, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return &t, nil
}

// UpsertTemplate creates a template or replaces an existing one by name.
// Used both by the admin API and by the seed command.
func (db *DB) UpsertTemplate(ctx context.Context, input *PromptTemplateInput) (*PromptTemplate, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO prompt_templates (name, category, template, active, description)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (name) DO UPDATE SET
		     category = $2,
		     template = $3,
		     active = $4,
		     description = $5,
		     updated_at = NOW()
		 RETURNING id`,
		input.Name, input.Category, input.Template, input.Active, input.Description,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert template: %w", err)
	}

	var t PromptTemplate
	err = db.pool.QueryRow(ctx,
		`SELECT id, name, category, template, active, description, created_at, updated_at
		 FROM prompt_templates WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Category, &t.Template, &t.Active, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to reload template: %w", err)
	}
	return &t, nil
}

// DeleteTemplate removes a template by id. Returns an error when unknown.
func (db *DB) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM prompt_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("template not found: %s", id)
	}
	return nil
}
