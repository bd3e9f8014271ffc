package projects

import (
	"context"

	"github.com/dmitrijs2005/projecthub/internal/models"
)

// Repository stores projects together with their nested assignments and tasks.
type Repository interface {
	// List returns every project, newest first, with assignments and tasks.
	List(ctx context.Context) ([]models.Project, error)
	// Get returns one project with assignments and tasks or common.ErrorNotFound.
	Get(ctx context.Context, id string) (*models.Project, error)
	Create(ctx context.Context, p *models.Project) (*models.Project, error)
	Update(ctx context.Context, p *models.Project) (*models.Project, error)
	Delete(ctx context.Context, id string) error
}
