package models

import (
	"fmt"
	"net/mail"
	"time"
)

// ProjectRef is the slice of a project embedded in a member's assignment.
type ProjectRef struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Status ProjectStatus `json:"status"`
}

// MemberAssignment is an assignment seen from the team member's side.
type MemberAssignment struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"project_id"`
	Role      string     `json:"role"`
	Project   ProjectRef `json:"project"`
}

// TeamMember is a person who can be assigned to projects. Email is the join
// key to the authenticated principal.
type TeamMember struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Position    string             `json:"position"`
	Email       string             `json:"email"`
	Phone       string             `json:"phone"`
	Skills      []string           `json:"skills"`
	Active      bool               `json:"active"`
	AvatarURL   string             `json:"avatar_url"`
	CreatedAt   time.Time          `json:"created_at"`
	Assignments []MemberAssignment `json:"assignments"`
}

func (m *TeamMember) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("member name is required")
	}
	if _, err := mail.ParseAddress(m.Email); err != nil {
		return fmt.Errorf("invalid email %q: %w", m.Email, err)
	}
	return nil
}

// UsableAssignments keeps only entries that carry both a project and a role.
func UsableAssignments(in []MemberAssignment) []MemberAssignment {
	out := make([]MemberAssignment, 0, len(in))
	for _, a := range in {
		if a.ProjectID == "" || a.Role == "" {
			continue
		}
		out = append(out, a)
	}
	return out
}
