// Package models defines the domain records shared by the server, the RPC
// layer and the client. JSON names follow the database column names.
package models

import (
	"fmt"
	"time"
)

// ProjectStatus is the lifecycle state of a project or task.
type ProjectStatus string

const (
	StatusTodo        ProjectStatus = "todo"
	StatusInProgress  ProjectStatus = "in-progress"
	StatusDone        ProjectStatus = "done"
	StatusDelay       ProjectStatus = "delay"
	StatusMaintenance ProjectStatus = "maintenance"
)

// Valid reports whether s is one of the known statuses.
func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone, StatusDelay, StatusMaintenance:
		return true
	}
	return false
}

// ParseStatus converts user input into a ProjectStatus.
func ParseStatus(s string) (ProjectStatus, error) {
	st := ProjectStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// MemberRef is the slice of a team member embedded in an assignment.
type MemberRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Assignment links a team member to a project under a free-text role.
type Assignment struct {
	ID         string    `json:"id"`
	Role       string    `json:"role"`
	TeamMember MemberRef `json:"team_member"`
}

// PaymentInstallment is one scheduled payment of a project budget.
type PaymentInstallment struct {
	Installment int     `json:"installment"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Paid        bool    `json:"paid"`
}

// Task is a unit of work inside a project. Progress is derived from tasks.
type Task struct {
	ID        string        `json:"id"`
	ProjectID string        `json:"project_id"`
	Name      string        `json:"name"`
	Status    ProjectStatus `json:"status"`
}

// Project is the central record. UserAssignmentRole is never stored; it is
// filled in by the scope resolver for non-admin callers.
type Project struct {
	ID                  string               `json:"id"`
	Name                string               `json:"name"`
	Description         string               `json:"description"`
	Status              ProjectStatus        `json:"status"`
	StartDate           time.Time            `json:"start_date"`
	EndDate             time.Time            `json:"end_date"`
	Budget              float64              `json:"budget"`
	OwnerName           string               `json:"owner_name"`
	OwnerContact        string               `json:"owner_contact"`
	UserID              string               `json:"user_id"`
	CreatedAt           time.Time            `json:"created_at"`
	PaymentInstallments []PaymentInstallment `json:"payment_installments"`
	Assignments         []Assignment         `json:"assignments"`
	Tasks               []Task               `json:"tasks"`
	UserAssignmentRole  string               `json:"user_assignment_role,omitempty"`
}

// Clone returns a copy whose slices do not alias p's.
func (p Project) Clone() Project {
	c := p
	c.PaymentInstallments = append([]PaymentInstallment(nil), p.PaymentInstallments...)
	c.Assignments = append([]Assignment(nil), p.Assignments...)
	c.Tasks = append([]Task(nil), p.Tasks...)
	return c
}

// Validate checks the fields a caller must supply when saving a project.
func (p *Project) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("project name is required")
	}
	if !p.Status.Valid() {
		return fmt.Errorf("unknown status %q", p.Status)
	}
	if !p.StartDate.IsZero() && !p.EndDate.IsZero() && p.EndDate.Before(p.StartDate) {
		return fmt.Errorf("end date %s is before start date %s",
			p.EndDate.Format(time.DateOnly), p.StartDate.Format(time.DateOnly))
	}
	if p.Budget < 0 {
		return fmt.Errorf("budget must not be negative")
	}
	return nil
}

// NormalizeInstallments drops blank rows (no number, no amount, no
// description). Paid keeps its zero value when not set.
func NormalizeInstallments(in []PaymentInstallment) []PaymentInstallment {
	out := make([]PaymentInstallment, 0, len(in))
	for _, it := range in {
		if it.Installment == 0 && it.Amount == 0 && it.Description == "" {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Progress is the share of done tasks in percent, rounded to the nearest
// integer. A project without tasks has progress 0.
func (p *Project) Progress() int {
	if len(p.Tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range p.Tasks {
		if t.Status == StatusDone {
			done++
		}
	}
	return int(float64(done)/float64(len(p.Tasks))*100 + 0.5)
}
