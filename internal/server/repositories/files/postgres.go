// Package files provides the PostgreSQL-backed project file repository.
package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/dbx"
	"github.com/dmitrijs2005/projecthub/internal/models"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/pgerr"
)

const fileColumns = `id, project_id, file_name, file_size, file_type, file_path, user_id, created_at`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a metadata row. A missing project yields ErrorNotFound and
// a duplicate storage path yields ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, f *models.ProjectFile) (*models.ProjectFile, error) {
	query := `
		INSERT INTO project_files (project_id, file_name, file_size, file_type, file_path, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	var userID sql.NullString
	if f.UserID != "" {
		userID = sql.NullString{String: f.UserID, Valid: true}
	}
	out := *f
	err := r.db.QueryRowContext(ctx, query, f.ProjectID, f.FileName, f.FileSize, f.FileType, f.FilePath, userID).
		Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		switch {
		case pgerr.IsForeignKeyViolation(err):
			return nil, common.ErrorNotFound
		case pgerr.IsUniqueViolation(err):
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &out, nil
}

func (r *PostgresRepository) ListByProject(ctx context.Context, projectID string) ([]models.ProjectFile, error) {
	query := `SELECT ` + fileColumns + ` FROM project_files WHERE project_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.ProjectFile, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.ProjectFile, error) {
	return scanFile(r.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM project_files WHERE id = $1`, id))
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM project_files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(s scanner) (*models.ProjectFile, error) {
	var (
		f      models.ProjectFile
		userID sql.NullString
	)
	err := s.Scan(&f.ID, &f.ProjectID, &f.FileName, &f.FileSize, &f.FileType, &f.FilePath, &userID, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	f.UserID = userID.String
	return &f, nil
}
