// Package teammembers provides the PostgreSQL-backed team member repository.
package teammembers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/dbx"
	"github.com/dmitrijs2005/projecthub/internal/models"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/pgerr"
)

const memberColumns = `id, name, position, email, phone, skills, active, avatar_url, created_at`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.TeamMember, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+memberColumns+` FROM team_members ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.TeamMember, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	assignments, err := r.assignments(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range result {
		result[i].Assignments = nonNil(assignments[result[i].ID])
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.TeamMember, error) {
	m, err := scanMember(r.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM team_members WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	assignments, err := r.assignments(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Assignments = nonNil(assignments[id])
	return m, nil
}

func (r *PostgresRepository) Create(ctx context.Context, m *models.TeamMember) (*models.TeamMember, error) {
	skills, err := encodeSkills(m.Skills)
	if err != nil {
		return nil, err
	}
	query := `
		INSERT INTO team_members (name, position, email, phone, skills, active, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	out := *m
	err = r.db.QueryRowContext(ctx, query, m.Name, m.Position, m.Email, m.Phone, skills, m.Active, m.AvatarURL).
		Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &out, nil
}

func (r *PostgresRepository) Update(ctx context.Context, m *models.TeamMember) error {
	skills, err := encodeSkills(m.Skills)
	if err != nil {
		return err
	}
	query := `
		UPDATE team_members SET name = $2, position = $3, email = $4, phone = $5, skills = $6,
			active = $7, avatar_url = $8
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, m.ID, m.Name, m.Position, m.Email, m.Phone, skills, m.Active, m.AvatarURL)
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return exactlyOne(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM team_members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return exactlyOne(res)
}

func (r *PostgresRepository) ReplaceAssignments(ctx context.Context, memberID string, assignments []models.MemberAssignment) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE team_member_id = $1`, memberID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	for _, a := range models.UsableAssignments(assignments) {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO assignments (project_id, team_member_id, role) VALUES ($1, $2, $3)`,
			a.ProjectID, memberID, a.Role)
		if err != nil {
			if pgerr.IsForeignKeyViolation(err) {
				return fmt.Errorf("project %s: %w", a.ProjectID, common.ErrorNotFound)
			}
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) assignments(ctx context.Context, memberID string) (map[string][]models.MemberAssignment, error) {
	query := `
		SELECT a.id, a.team_member_id, a.project_id, a.role, p.name, p.status
		FROM assignments a
		JOIN projects p ON p.id = a.project_id
		WHERE ($1 = '' OR a.team_member_id::text = $1)
		ORDER BY a.created_at
	`
	rows, err := r.db.QueryContext(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]models.MemberAssignment)
	for rows.Next() {
		var (
			a      models.MemberAssignment
			mid    string
			status string
		)
		if err := rows.Scan(&a.ID, &mid, &a.ProjectID, &a.Role, &a.Project.Name, &status); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		a.Project.ID = a.ProjectID
		a.Project.Status = models.ProjectStatus(status)
		out[mid] = append(out[mid], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMember(s scanner) (*models.TeamMember, error) {
	var (
		m      models.TeamMember
		skills []byte
	)
	err := s.Scan(&m.ID, &m.Name, &m.Position, &m.Email, &m.Phone, &skills, &m.Active, &m.AvatarURL, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	m.Skills = []string{}
	if len(skills) > 0 {
		if err := json.Unmarshal(skills, &m.Skills); err != nil {
			return nil, fmt.Errorf("decode skills of %s: %w", m.ID, err)
		}
	}
	return &m, nil
}

func encodeSkills(skills []string) ([]byte, error) {
	if skills == nil {
		skills = []string{}
	}
	b, err := json.Marshal(skills)
	if err != nil {
		return nil, fmt.Errorf("encode skills: %w", err)
	}
	return b, nil
}

func exactlyOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func nonNil(a []models.MemberAssignment) []models.MemberAssignment {
	if a == nil {
		return []models.MemberAssignment{}
	}
	return a
}
