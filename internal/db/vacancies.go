package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateVacancy validates and persists a new vacancy. The weights-sum-100
// invariant is enforced here, before the row ever exists, so the evaluation
// aggregator can assume validated input.
func (db *DB) CreateVacancy(ctx context.Context, input *VacancyInput) (*Vacancy, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	reqJSON, err := json.Marshal(input.Requirements)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal requirements: %w", err)
	}
	weightsJSON, err := json.Marshal(input.Weights)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal weights: %w", err)
	}

	var id uuid.UUID
	err = db.pool.QueryRow(ctx,
		`INSERT INTO vacancies (title, description, requirements, evaluation_weights, active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		input.Title, input.Description, reqJSON, weightsJSON, input.Active,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create vacancy: %w", err)
	}

	return db.GetVacancy(ctx, id)
}

// UpdateVacancy validates and replaces a vacancy's fields.
func (db *DB) UpdateVacancy(ctx context.Context, id uuid.UUID, input *VacancyInput) (*Vacancy, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	reqJSON, err := json.Marshal(input.Requirements)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal requirements: %w", err)
	}
	weightsJSON, err := json.Marshal(input.Weights)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal weights: %w", err)
	}

	result, err := db.pool.Exec(ctx,
		`UPDATE vacancies
		 SET title = $1, description = $2, requirements = $3,
		     evaluation_weights = $4, active = $5, updated_at = NOW()
		 WHERE id = $6`,
		input.Title, input.Description, reqJSON, weightsJSON, input.Active, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update vacancy: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, nil
	}

	return db.GetVacancy(ctx, id)
}

// GetVacancy retrieves a vacancy by id. Returns (nil, nil) when not found.
func (db *DB) GetVacancy(ctx context.Context, id uuid.UUID) (*Vacancy, error) {
	var v Vacancy
	var reqJSON, weightsJSON []byte

	err := db.pool.QueryRow(ctx,
		`SELECT id, title, description, requirements, evaluation_weights, active, created_at, updated_at
		 FROM vacancies WHERE id = $1`,
		id,
	).Scan(&v.ID, &v.Title, &v.Description, &reqJSON, &weightsJSON, &v.Active, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get vacancy: %w", err)
	}

	if reqJSON != nil {
		_ = json.Unmarshal(reqJSON, &v.Requirements)
	}
	if weightsJSON != nil {
		_ = json.Unmarshal(weightsJSON, &v.Weights)
	}

	return &v, nil
}

// ListActiveVacancies retrieves active vacancies in creation order. These are
// the options offered to a candidate during vacancy selection.
func (db *DB) ListActiveVacancies(ctx context.Context) ([]Vacancy, error) {
	return db.listVacancies(ctx, true)
}

// ListVacancies retrieves all vacancies in creation order.
func (db *DB) ListVacancies(ctx context.Context) ([]Vacancy, error) {
	return db.listVacancies(ctx, false)
}

func (db *DB) listVacancies(ctx context.Context, activeOnly bool) ([]Vacancy, error) {
	query := `SELECT id, title, description, requirements, evaluation_weights, active, created_at, updated_at
		FROM vacancies`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list vacancies: %w", err)
	}
	defer rows.Close()

	var vacancies []Vacancy
	for rows.Next() {
		var v Vacancy
		var reqJSON, weightsJSON []byte
		if err := rows.Scan(&v.ID, &v.Title, &v.Description, &reqJSON, &weightsJSON, &v.Active, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vacancy: %w", err)
		}
		if reqJSON != nil {
			_ = json.Unmarshal(reqJSON, &v.Requirements)
		}
		if weightsJSON != nil {
			_ = json.Unmarshal(weightsJSON, &v.Weights)
		}
		vacancies = append(vacancies, v)
	}
	return vacancies, nil
}

// DeleteVacancy removes a vacancy. Returns an error when the id is unknown.
func (db *DB) DeleteVacancy(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM vacancies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete vacancy: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("vacancy not found: %s", id)
	}
	return nil
}
