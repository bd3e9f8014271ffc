package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/api"
	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/dmitrijs2005/projecthub/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// handler implements api.ProjectHubServer on top of Services.
type handler struct {
	svc    Services
	logger logging.Logger
}

var _ api.ProjectHubServer = (*handler)(nil)

func (h *handler) fail(ctx context.Context, method string, err error) error {
	st := toStatus(err)
	if status.Code(st) == codes.Internal {
		h.logger.Error(ctx, "request failed", "method", method, "error", err)
	} else {
		h.logger.Debug(ctx, "request rejected", "method", method, "error", err)
	}
	return st
}

func authResponse(p *services.TokenPair) *api.AuthResponse {
	return &api.AuthResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresAt:    p.ExpiresAt,
		User:         p.User,
	}
}

func (h *handler) Ping(ctx context.Context, _ *api.Empty) (*api.PingResponse, error) {
	return &api.PingResponse{Status: "OK"}, nil
}

func (h *handler) SignUp(ctx context.Context, req *api.CredentialsRequest) (*api.AuthResponse, error) {
	pair, err := h.svc.Users.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return nil, h.fail(ctx, api.MethodSignUp, err)
	}
	return authResponse(pair), nil
}

func (h *handler) SignIn(ctx context.Context, req *api.CredentialsRequest) (*api.AuthResponse, error) {
	pair, err := h.svc.Users.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, h.fail(ctx, api.MethodSignIn, err)
	}
	return authResponse(pair), nil
}

func (h *handler) RefreshToken(ctx context.Context, req *api.RefreshTokenRequest) (*api.AuthResponse, error) {
	pair, err := h.svc.Users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, h.fail(ctx, api.MethodRefreshToken, err)
	}
	return authResponse(pair), nil
}

func (h *handler) SignOut(ctx context.Context, req *api.SignOutRequest) (*api.Empty, error) {
	var (
		jti     string
		expires time.Time
	)
	if c, ok := claimsFromContext(ctx); ok {
		jti = c.ID
		if c.ExpiresAt != nil {
			expires = c.ExpiresAt.Time
		}
	}
	if err := h.svc.Users.SignOut(ctx, req.RefreshToken, jti, expires); err != nil {
		return nil, h.fail(ctx, api.MethodSignOut, err)
	}
	return &api.Empty{}, nil
}

func (h *handler) GetCurrentUser(ctx context.Context, _ *api.Empty) (*api.UserResponse, error) {
	p, role, err := h.svc.Users.CurrentUser(ctx)
	if err != nil {
		return nil, h.fail(ctx, api.MethodGetCurrentUser, err)
	}
	return &api.UserResponse{User: p, Role: role}, nil
}

func (h *handler) ListProjects(ctx context.Context, _ *api.Empty) (*api.ProjectsResponse, error) {
	projects, err := h.svc.Projects.List(ctx)
	if err != nil {
		return nil, h.fail(ctx, api.MethodListProjects, err)
	}
	return &api.ProjectsResponse{Projects: projects}, nil
}

func (h *handler) GetProject(ctx context.Context, req *api.IDRequest) (*api.ProjectResponse, error) {
	p, err := h.svc.Projects.Get(ctx, req.ID)
	if err != nil {
		return nil, h.fail(ctx, api.MethodGetProject, err)
	}
	return &api.ProjectResponse{Project: *p}, nil
}

func (h *handler) CreateProject(ctx context.Context, req *api.ProjectRequest) (*api.ProjectResponse, error) {
	p, err := h.svc.Projects.Create(ctx, &req.Project)
	if err != nil {
		return nil, h.fail(ctx, api.MethodCreateProject, err)
	}
	return &api.ProjectResponse{Project: *p}, nil
}

func (h *handler) UpdateProject(ctx context.Context, req *api.ProjectRequest) (*api.ProjectResponse, error) {
	p, err := h.svc.Projects.Update(ctx, &req.Project)
	if err != nil {
		return nil, h.fail(ctx, api.MethodUpdateProject, err)
	}
	return &api.ProjectResponse{Project: *p}, nil
}

func (h *handler) DeleteProject(ctx context.Context, req *api.IDRequest) (*api.DeleteProjectResponse, error) {
	results, err := h.svc.Projects.Delete(ctx, req.ID)
	if err != nil {
		return nil, h.fail(ctx, api.MethodDeleteProject, err)
	}
	return &api.DeleteProjectResponse{Files: results}, nil
}

func (h *handler) ListProjectFiles(ctx context.Context, req *api.ProjectFilesRequest) (*api.ProjectFilesResponse, error) {
	files, err := h.svc.Projects.ListFiles(ctx, req.ProjectID)
	if err != nil {
		return nil, h.fail(ctx, api.MethodListProjectFiles, err)
	}
	return &api.ProjectFilesResponse{Files: files}, nil
}

func (h *handler) CreateFileUpload(ctx context.Context, req *api.FileUploadRequest) (*api.FileUploadResponse, error) {
	f, url, err := h.svc.Projects.CreateFileUpload(ctx, req.ProjectID, req.FileName, req.FileSize, req.FileType)
	if err != nil {
		return nil, h.fail(ctx, api.MethodCreateFileUpload, err)
	}
	return &api.FileUploadResponse{File: *f, UploadURL: url}, nil
}

func (h *handler) GetFileDownloadURL(ctx context.Context, req *api.IDRequest) (*api.URLResponse, error) {
	url, err := h.svc.Projects.GetFileDownloadURL(ctx, req.ID)
	if err != nil {
		return nil, h.fail(ctx, api.MethodGetFileDownloadURL, err)
	}
	return &api.URLResponse{URL: url}, nil
}

func (h *handler) DeleteFile(ctx context.Context, req *api.IDRequest) (*api.Empty, error) {
	if err := h.svc.Projects.DeleteFile(ctx, req.ID); err != nil {
		return nil, h.fail(ctx, api.MethodDeleteFile, err)
	}
	return &api.Empty{}, nil
}

func (h *handler) ListTeamMembers(ctx context.Context, _ *api.Empty) (*api.TeamMembersResponse, error) {
	members, err := h.svc.Team.List(ctx)
	if err != nil {
		return nil, h.fail(ctx, api.MethodListTeamMembers, err)
	}
	return &api.TeamMembersResponse{Members: members}, nil
}

func (h *handler) SaveTeamMember(ctx context.Context, req *api.TeamMemberRequest) (*api.TeamMemberResponse, error) {
	m, err := h.svc.Team.Save(ctx, &req.Member)
	if err != nil {
		return nil, h.fail(ctx, api.MethodSaveTeamMember, err)
	}
	return &api.TeamMemberResponse{Member: *m}, nil
}

func (h *handler) DeleteTeamMember(ctx context.Context, req *api.IDRequest) (*api.Empty, error) {
	if err := h.svc.Team.Delete(ctx, req.ID); err != nil {
		return nil, h.fail(ctx, api.MethodDeleteTeamMember, err)
	}
	return &api.Empty{}, nil
}

func (h *handler) CreateAvatarUpload(ctx context.Context, req *api.AvatarUploadRequest) (*api.AvatarUploadResponse, error) {
	upload, public, err := h.svc.Team.CreateAvatarUpload(ctx, req.FileName)
	if err != nil {
		return nil, h.fail(ctx, api.MethodCreateAvatarUpload, err)
	}
	return &api.AvatarUploadResponse{UploadURL: upload, PublicURL: public}, nil
}

func (h *handler) ListActivities(ctx context.Context, req *api.ActivitiesRequest) (*api.ActivitiesResponse, error) {
	activities, err := h.svc.Activities.ListRecent(ctx, req.Limit)
	if err != nil {
		return nil, h.fail(ctx, api.MethodListActivities, err)
	}
	return &api.ActivitiesResponse{Activities: activities}, nil
}
