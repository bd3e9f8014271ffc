package client

import (
	"context"

	"github.com/dmitrijs2005/projecthub/internal/access"
	"github.com/dmitrijs2005/projecthub/internal/api"
	"github.com/dmitrijs2005/projecthub/internal/models"
)

// Client is the data side of the backend used by the terminal commands.
// Authentication lives on the same value, see GRPCClient.
type Client interface {
	Close() error
	Ping(ctx context.Context) error

	ListProjects(ctx context.Context) ([]models.Project, error)
	GetProject(ctx context.Context, id string) (*models.Project, error)
	CreateProject(ctx context.Context, p models.Project) (*models.Project, error)
	UpdateProject(ctx context.Context, p models.Project) (*models.Project, error)
	DeleteProject(ctx context.Context, id string) ([]models.FileResult, error)

	ListProjectFiles(ctx context.Context, projectID string) ([]models.ProjectFile, error)
	CreateFileUpload(ctx context.Context, req api.FileUploadRequest) (*api.FileUploadResponse, error)
	GetFileDownloadURL(ctx context.Context, fileID string) (string, error)
	DeleteFile(ctx context.Context, fileID string) error

	ListTeamMembers(ctx context.Context) ([]models.TeamMember, error)
	SaveTeamMember(ctx context.Context, m models.TeamMember) (*models.TeamMember, error)
	DeleteTeamMember(ctx context.Context, id string) error
	CreateAvatarUpload(ctx context.Context, fileName string) (*api.AvatarUploadResponse, error)

	ListActivities(ctx context.Context, limit int) ([]models.Activity, error)
}

// TokenStore keeps the refresh token between runs.
type TokenStore interface {
	LoadRefreshToken(ctx context.Context) (string, error)
	SaveRefreshToken(ctx context.Context, token string) error
	ClearRefreshToken(ctx context.Context) error
}

// AuthListener receives the signed-in principal, or nil after sign-out.
type AuthListener func(user *access.Principal)
