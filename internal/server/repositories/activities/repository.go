// Package activities stores the audit feed of project and file changes.
package activities

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/projecthub/internal/dbx"
	"github.com/dmitrijs2005/projecthub/internal/models"
)

type Repository interface {
	Create(ctx context.Context, a *models.Activity) error
	// ListRecent returns at most limit entries, newest first.
	ListRecent(ctx context.Context, limit int) ([]models.Activity, error)
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Activity) error {
	query := `INSERT INTO activities (project_id, user_id, action, description) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, nullable(a.ProjectID), nullable(a.UserID), a.Action, a.Description)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListRecent(ctx context.Context, limit int) ([]models.Activity, error) {
	query := `
		SELECT a.id, a.project_id, COALESCE(p.name, ''), a.user_id, a.action, a.description, a.created_at
		FROM activities a
		LEFT JOIN projects p ON p.id = a.project_id
		ORDER BY a.created_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Activity, 0)
	for rows.Next() {
		var (
			a                 models.Activity
			projectID, userID sql.NullString
		)
		if err := rows.Scan(&a.ID, &projectID, &a.ProjectName, &userID, &a.Action, &a.Description, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.ProjectID = projectID.String
		a.UserID = userID.String
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
