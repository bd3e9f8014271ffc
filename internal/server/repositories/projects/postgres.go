// Package projects provides the PostgreSQL-backed project repository.
package projects

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/dbx"
	"github.com/dmitrijs2005/projecthub/internal/models"
)

const projectColumns = `id, name, description, status, start_date, end_date, budget,
	owner_name, owner_contact, payment_installments, user_id, created_at`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.Project, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	assignments, err := r.assignments(ctx, "")
	if err != nil {
		return nil, err
	}
	tasks, err := r.tasks(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range result {
		result[i].Assignments = nonNil(assignments[result[i].ID])
		result[i].Tasks = nonNilTasks(tasks[result[i].ID])
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	p, err := scanProject(row)
	if err != nil {
		return nil, err
	}

	assignments, err := r.assignments(ctx, id)
	if err != nil {
		return nil, err
	}
	tasks, err := r.tasks(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Assignments = nonNil(assignments[id])
	p.Tasks = nonNilTasks(tasks[id])
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	installments, err := json.Marshal(models.NormalizeInstallments(p.PaymentInstallments))
	if err != nil {
		return nil, fmt.Errorf("encode installments: %w", err)
	}
	query := `
		INSERT INTO projects (name, description, status, start_date, end_date, budget,
			owner_name, owner_contact, payment_installments, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`
	out := p.Clone()
	out.PaymentInstallments = models.NormalizeInstallments(p.PaymentInstallments)
	err = r.db.QueryRowContext(ctx, query,
		p.Name, p.Description, string(p.Status), nullDate(p.StartDate), nullDate(p.EndDate), p.Budget,
		p.OwnerName, p.OwnerContact, installments, nullString(p.UserID),
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &out, nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *models.Project) (*models.Project, error) {
	installments, err := json.Marshal(models.NormalizeInstallments(p.PaymentInstallments))
	if err != nil {
		return nil, fmt.Errorf("encode installments: %w", err)
	}
	query := `
		UPDATE projects SET name = $2, description = $3, status = $4, start_date = $5, end_date = $6,
			budget = $7, owner_name = $8, owner_contact = $9, payment_installments = $10
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, string(p.Status), nullDate(p.StartDate), nullDate(p.EndDate),
		p.Budget, p.OwnerName, p.OwnerContact, installments,
	)
	if err := exactlyOne(res, err); err != nil {
		return nil, err
	}
	return r.Get(ctx, p.ID)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	return exactlyOne(res, err)
}

// assignments loads assignment rows keyed by project id. An empty projectID
// loads all of them.
func (r *PostgresRepository) assignments(ctx context.Context, projectID string) (map[string][]models.Assignment, error) {
	query := `
		SELECT a.id, a.project_id, a.role, m.id, m.name, m.email
		FROM assignments a
		JOIN team_members m ON m.id = a.team_member_id
		WHERE ($1 = '' OR a.project_id::text = $1)
		ORDER BY a.created_at
	`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]models.Assignment)
	for rows.Next() {
		var a models.Assignment
		var pid string
		if err := rows.Scan(&a.ID, &pid, &a.Role, &a.TeamMember.ID, &a.TeamMember.Name, &a.TeamMember.Email); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out[pid] = append(out[pid], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) tasks(ctx context.Context, projectID string) (map[string][]models.Task, error) {
	query := `
		SELECT id, project_id, name, status
		FROM tasks
		WHERE ($1 = '' OR project_id::text = $1)
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]models.Task)
	for rows.Next() {
		var t models.Task
		var status string
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Name, &status); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.Status = models.ProjectStatus(status)
		out[t.ProjectID] = append(out[t.ProjectID], t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (*models.Project, error) {
	var (
		p            models.Project
		status       string
		start, end   sql.NullTime
		userID       sql.NullString
		installments []byte
	)
	err := s.Scan(&p.ID, &p.Name, &p.Description, &status, &start, &end, &p.Budget,
		&p.OwnerName, &p.OwnerContact, &installments, &userID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	p.Status = models.ProjectStatus(status)
	p.StartDate = start.Time
	p.EndDate = end.Time
	p.UserID = userID.String
	p.PaymentInstallments = []models.PaymentInstallment{}
	if len(installments) > 0 {
		if err := json.Unmarshal(installments, &p.PaymentInstallments); err != nil {
			return nil, fmt.Errorf("decode installments of %s: %w", p.ID, err)
		}
	}
	return &p, nil
}

func exactlyOne(res sql.Result, err error) error {
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

func nullDate(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nonNil(a []models.Assignment) []models.Assignment {
	if a == nil {
		return []models.Assignment{}
	}
	return a
}

func nonNilTasks(t []models.Task) []models.Task {
	if t == nil {
		return []models.Task{}
	}
	return t
}
