package teammembers

import (
	"context"

	"github.com/dmitrijs2005/projecthub/internal/models"
)

// Repository stores team members and their project assignments.
type Repository interface {
	// List returns every member ordered by name, with assignments.
	List(ctx context.Context) ([]models.TeamMember, error)
	Get(ctx context.Context, id string) (*models.TeamMember, error)
	Create(ctx context.Context, m *models.TeamMember) (*models.TeamMember, error)
	Update(ctx context.Context, m *models.TeamMember) error
	Delete(ctx context.Context, id string) error
	// ReplaceAssignments drops every assignment of the member and inserts the given ones.
	ReplaceAssignments(ctx context.Context, memberID string, assignments []models.MemberAssignment) error
}
