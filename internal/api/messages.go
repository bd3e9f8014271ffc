package api

import (
	"time"

	"github.com/dmitrijs2005/projecthub/internal/access"
	"github.com/dmitrijs2005/projecthub/internal/models"
)

type Empty struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse is returned by every call that opens or renews a session.
type AuthResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	ExpiresAt    time.Time        `json:"expires_at"`
	User         access.Principal `json:"user"`
}

type SignOutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type UserResponse struct {
	User access.Principal `json:"user"`
	Role access.Role      `json:"role"`
}

type IDRequest struct {
	ID string `json:"id"`
}

type ProjectsResponse struct {
	Projects []models.Project `json:"projects"`
}

type ProjectRequest struct {
	Project models.Project `json:"project"`
}

type ProjectResponse struct {
	Project models.Project `json:"project"`
}

type DeleteProjectResponse struct {
	Files []models.FileResult `json:"files"`
}

type ProjectFilesRequest struct {
	ProjectID string `json:"project_id"`
}

type ProjectFilesResponse struct {
	Files []models.ProjectFile `json:"files"`
}

type FileUploadRequest struct {
	ProjectID string `json:"project_id"`
	FileName  string `json:"file_name"`
	FileSize  int64  `json:"file_size"`
	FileType  string `json:"file_type"`
}

type FileUploadResponse struct {
	File      models.ProjectFile `json:"file"`
	UploadURL string             `json:"upload_url"`
}

type URLResponse struct {
	URL string `json:"url"`
}

type TeamMembersResponse struct {
	Members []models.TeamMember `json:"members"`
}

type TeamMemberRequest struct {
	Member models.TeamMember `json:"member"`
}

type TeamMemberResponse struct {
	Member models.TeamMember `json:"member"`
}

type AvatarUploadRequest struct {
	FileName string `json:"file_name"`
}

type AvatarUploadResponse struct {
	UploadURL string `json:"upload_url"`
	PublicURL string `json:"public_url"`
}

type ActivitiesRequest struct {
	Limit int `json:"limit"`
}

type ActivitiesResponse struct {
	Activities []models.Activity `json:"activities"`
}
