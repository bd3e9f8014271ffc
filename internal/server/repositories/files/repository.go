package files

import (
	"context"

	"github.com/dmitrijs2005/projecthub/internal/models"
)

// Repository stores project file metadata. Object bytes live in the bucket.
type Repository interface {
	Create(ctx context.Context, f *models.ProjectFile) (*models.ProjectFile, error)
	// ListByProject returns the project's files, newest first.
	ListByProject(ctx context.Context, projectID string) ([]models.ProjectFile, error)
	Get(ctx context.Context, id string) (*models.ProjectFile, error)
	Delete(ctx context.Context, id string) error
}
