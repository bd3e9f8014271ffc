package api

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "projecthub.ProjectHub"

// Method names.
const (
	MethodPing               = "Ping"
	MethodSignUp             = "SignUp"
	MethodSignIn             = "SignIn"
	MethodRefreshToken       = "RefreshToken"
	MethodSignOut            = "SignOut"
	MethodGetCurrentUser     = "GetCurrentUser"
	MethodListProjects       = "ListProjects"
	MethodGetProject         = "GetProject"
	MethodCreateProject      = "CreateProject"
	MethodUpdateProject      = "UpdateProject"
	MethodDeleteProject      = "DeleteProject"
	MethodListProjectFiles   = "ListProjectFiles"
	MethodCreateFileUpload   = "CreateFileUpload"
	MethodGetFileDownloadURL = "GetFileDownloadURL"
	MethodDeleteFile         = "DeleteFile"
	MethodListTeamMembers    = "ListTeamMembers"
	MethodSaveTeamMember     = "SaveTeamMember"
	MethodDeleteTeamMember   = "DeleteTeamMember"
	MethodCreateAvatarUpload = "CreateAvatarUpload"
	MethodListActivities     = "ListActivities"
)

// FullMethod returns "/projecthub.ProjectHub/<name>".
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// PublicMethods may be called without an access token.
var PublicMethods = map[string]bool{
	FullMethod(MethodPing):         true,
	FullMethod(MethodSignUp):       true,
	FullMethod(MethodSignIn):       true,
	FullMethod(MethodRefreshToken): true,
}

// ProjectHubServer is implemented by the RPC server.
type ProjectHubServer interface {
	Ping(context.Context, *Empty) (*PingResponse, error)
	SignUp(context.Context, *CredentialsRequest) (*AuthResponse, error)
	SignIn(context.Context, *CredentialsRequest) (*AuthResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*AuthResponse, error)
	SignOut(context.Context, *SignOutRequest) (*Empty, error)
	GetCurrentUser(context.Context, *Empty) (*UserResponse, error)
	ListProjects(context.Context, *Empty) (*ProjectsResponse, error)
	GetProject(context.Context, *IDRequest) (*ProjectResponse, error)
	CreateProject(context.Context, *ProjectRequest) (*ProjectResponse, error)
	UpdateProject(context.Context, *ProjectRequest) (*ProjectResponse, error)
	DeleteProject(context.Context, *IDRequest) (*DeleteProjectResponse, error)
	ListProjectFiles(context.Context, *ProjectFilesRequest) (*ProjectFilesResponse, error)
	CreateFileUpload(context.Context, *FileUploadRequest) (*FileUploadResponse, error)
	GetFileDownloadURL(context.Context, *IDRequest) (*URLResponse, error)
	DeleteFile(context.Context, *IDRequest) (*Empty, error)
	ListTeamMembers(context.Context, *Empty) (*TeamMembersResponse, error)
	SaveTeamMember(context.Context, *TeamMemberRequest) (*TeamMemberResponse, error)
	DeleteTeamMember(context.Context, *IDRequest) (*Empty, error)
	CreateAvatarUpload(context.Context, *AvatarUploadRequest) (*AvatarUploadResponse, error)
	ListActivities(context.Context, *ActivitiesRequest) (*ActivitiesResponse, error)
}

// unary adapts a typed server method to a grpc.MethodDesc, running the
// server's interceptor chain the same way generated code does.
func unary[Req, Resp any](name string, call func(ProjectHubServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(ProjectHubServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc registers ProjectHubServer with a grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProjectHubServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodPing, ProjectHubServer.Ping),
		unary(MethodSignUp, ProjectHubServer.SignUp),
		unary(MethodSignIn, ProjectHubServer.SignIn),
		unary(MethodRefreshToken, ProjectHubServer.RefreshToken),
		unary(MethodSignOut, ProjectHubServer.SignOut),
		unary(MethodGetCurrentUser, ProjectHubServer.GetCurrentUser),
		unary(MethodListProjects, ProjectHubServer.ListProjects),
		unary(MethodGetProject, ProjectHubServer.GetProject),
		unary(MethodCreateProject, ProjectHubServer.CreateProject),
		unary(MethodUpdateProject, ProjectHubServer.UpdateProject),
		unary(MethodDeleteProject, ProjectHubServer.DeleteProject),
		unary(MethodListProjectFiles, ProjectHubServer.ListProjectFiles),
		unary(MethodCreateFileUpload, ProjectHubServer.CreateFileUpload),
		unary(MethodGetFileDownloadURL, ProjectHubServer.GetFileDownloadURL),
		unary(MethodDeleteFile, ProjectHubServer.DeleteFile),
		unary(MethodListTeamMembers, ProjectHubServer.ListTeamMembers),
		unary(MethodSaveTeamMember, ProjectHubServer.SaveTeamMember),
		unary(MethodDeleteTeamMember, ProjectHubServer.DeleteTeamMember),
		unary(MethodCreateAvatarUpload, ProjectHubServer.CreateAvatarUpload),
		unary(MethodListActivities, ProjectHubServer.ListActivities),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "projecthub.json",
}

// RegisterProjectHubServer attaches srv to s.
func RegisterProjectHubServer(s grpc.ServiceRegistrar, srv ProjectHubServer) {
	s.RegisterService(&ServiceDesc, srv)
}
