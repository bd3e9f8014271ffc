package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/projecthub/internal/access"
	"github.com/dmitrijs2005/projecthub/internal/api"
	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/dmitrijs2005/projecthub/internal/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// invoker is the part of *grpc.ClientConn the client needs.
type invoker interface {
	Invoke(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error
}

// GRPCClient talks to the ProjectHub server. It holds the token pair,
// refreshes an expired access token once per call, persists the refresh
// token in a TokenStore and tells listeners about sign-in and sign-out.
// It is safe for concurrent use.
type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	rpc         invoker
	tokens      TokenStore
	logger      logging.Logger

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	user         *access.Principal
	listeners    map[int]AuthListener
	nextListener int
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if api.PublicMethods[method] {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	accessToken, refreshToken := s.tokenPair()
	err := invoker(withAccessToken(ctx, accessToken), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}
	if refreshToken == "" {
		return err
	}

	resp := &api.AuthResponse{}
	if rerr := s.rpc.Invoke(ctx, api.FullMethod(api.MethodRefreshToken), &api.RefreshTokenRequest{RefreshToken: refreshToken}, resp); rerr != nil {
		if status.Code(rerr) == codes.Unauthenticated {
			s.logger.Info(ctx, "session expired", "method", method)
			s.dropSession(ctx)
		}
		return rerr
	}

	s.setSession(ctx, resp, false)
	// the refresh above rotated the pair; sign-out must name the live token
	if so, ok := req.(*api.SignOutRequest); ok {
		so.RefreshToken = resp.RefreshToken
	}
	return invoker(withAccessToken(ctx, resp.AccessToken), method, req, reply, cc, opts...)
}

// NewGRPCClient dials endpointURL lazily and restores the refresh token kept
// in tokens, if any. Extra dial options are appended to the defaults.
func NewGRPCClient(ctx context.Context, endpointURL string, tokens TokenStore, logger logging.Logger, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{
		endpointURL: endpointURL,
		tokens:      tokens,
		logger:      logger.With("module", "rpc_client"),
		listeners:   make(map[int]AuthListener),
	}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	if tokens != nil {
		refresh, err := tokens.LoadRefreshToken(ctx)
		if err != nil {
			c.logger.Warn(ctx, "stored session not readable", "error", err)
		}
		c.refreshToken = refresh
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(api.CodecName)),
	}, opts...)
	conn, err := grpc.NewClient(s.endpointURL, dialOpts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.rpc = conn
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) call(ctx context.Context, name string, req, resp any) error {
	if err := s.rpc.Invoke(ctx, api.FullMethod(name), req, resp); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) tokenPair() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

// setSession stores a fresh token pair. Listeners hear about it only when
// announce is set, so a silent token refresh does not look like a sign-in.
func (s *GRPCClient) setSession(ctx context.Context, resp *api.AuthResponse, announce bool) {
	user := resp.User

	s.mu.Lock()
	s.accessToken = resp.AccessToken
	s.refreshToken = resp.RefreshToken
	s.user = &user
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	if s.tokens != nil {
		if err := s.tokens.SaveRefreshToken(ctx, resp.RefreshToken); err != nil {
			s.logger.Warn(ctx, "refresh token not persisted", "error", err)
		}
	}
	if announce {
		notify(listeners, &user)
	}
}

func (s *GRPCClient) dropSession(ctx context.Context) {
	s.mu.Lock()
	hadUser := s.user != nil
	s.accessToken = ""
	s.refreshToken = ""
	s.user = nil
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	if s.tokens != nil {
		if err := s.tokens.ClearRefreshToken(ctx); err != nil {
			s.logger.Warn(ctx, "stored session not cleared", "error", err)
		}
	}
	if hadUser {
		notify(listeners, nil)
	}
}

// snapshotListeners must be called with mu held.
func (s *GRPCClient) snapshotListeners() []AuthListener {
	out := make([]AuthListener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []AuthListener, user *access.Principal) {
	for _, fn := range listeners {
		if user == nil {
			fn(nil)
			continue
		}
		u := *user
		fn(&u)
	}
}

// OnAuthStateChange registers fn for sign-in and sign-out events. The
// returned func removes it and may be called more than once.
func (s *GRPCClient) OnAuthStateChange(fn func(user *access.Principal)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// GetCurrentSession returns the signed-in user. A stored refresh token is
// exchanged for a new pair first when there is no access token yet. No
// session at all, or a rejected stored token, yields (nil, nil).
func (s *GRPCClient) GetCurrentSession(ctx context.Context) (*access.Principal, error) {
	accessToken, refreshToken := s.tokenPair()
	if accessToken == "" {
		if refreshToken == "" {
			return nil, nil
		}
		resp := &api.AuthResponse{}
		err := s.call(ctx, api.MethodRefreshToken, &api.RefreshTokenRequest{RefreshToken: refreshToken}, resp)
		if errors.Is(err, ErrUnauthorized) {
			s.logger.Info(ctx, "stored session rejected")
			s.dropSession(ctx)
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		s.setSession(ctx, resp, false)
	}

	resp := &api.UserResponse{}
	err := s.call(ctx, api.MethodGetCurrentUser, &api.Empty{}, resp)
	if errors.Is(err, ErrUnauthorized) {
		s.dropSession(ctx)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	user := resp.User
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	return &user, nil
}

func (s *GRPCClient) SignInWithPassword(ctx context.Context, email, password string) (*access.Principal, error) {
	return s.authenticate(ctx, api.MethodSignIn, email, password)
}

func (s *GRPCClient) SignUp(ctx context.Context, email, password string) (*access.Principal, error) {
	return s.authenticate(ctx, api.MethodSignUp, email, password)
}

func (s *GRPCClient) authenticate(ctx context.Context, method, email, password string) (*access.Principal, error) {
	resp := &api.AuthResponse{}
	if err := s.call(ctx, method, &api.CredentialsRequest{Email: email, Password: password}, resp); err != nil {
		return nil, err
	}
	s.setSession(ctx, resp, true)
	user := resp.User
	return &user, nil
}

// SignOut revokes the session on the server and always forgets it locally.
func (s *GRPCClient) SignOut(ctx context.Context) error {
	accessToken, refreshToken := s.tokenPair()
	var err error
	if accessToken != "" || refreshToken != "" {
		err = s.call(ctx, api.MethodSignOut, &api.SignOutRequest{RefreshToken: refreshToken}, &api.Empty{})
	}
	s.dropSession(ctx)
	return err
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp := &api.PingResponse{}
	if err := s.call(ctx, api.MethodPing, &api.Empty{}, resp); err != nil {
		return err
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) ListProjects(ctx context.Context) ([]models.Project, error) {
	resp := &api.ProjectsResponse{}
	if err := s.call(ctx, api.MethodListProjects, &api.Empty{}, resp); err != nil {
		return nil, err
	}
	return resp.Projects, nil
}

func (s *GRPCClient) GetProject(ctx context.Context, id string) (*models.Project, error) {
	resp := &api.ProjectResponse{}
	if err := s.call(ctx, api.MethodGetProject, &api.IDRequest{ID: id}, resp); err != nil {
		return nil, err
	}
	return &resp.Project, nil
}

func (s *GRPCClient) CreateProject(ctx context.Context, p models.Project) (*models.Project, error) {
	resp := &api.ProjectResponse{}
	if err := s.call(ctx, api.MethodCreateProject, &api.ProjectRequest{Project: p}, resp); err != nil {
		return nil, err
	}
	return &resp.Project, nil
}

func (s *GRPCClient) UpdateProject(ctx context.Context, p models.Project) (*models.Project, error) {
	resp := &api.ProjectResponse{}
	if err := s.call(ctx, api.MethodUpdateProject, &api.ProjectRequest{Project: p}, resp); err != nil {
		return nil, err
	}
	return &resp.Project, nil
}

func (s *GRPCClient) DeleteProject(ctx context.Context, id string) ([]models.FileResult, error) {
	resp := &api.DeleteProjectResponse{}
	if err := s.call(ctx, api.MethodDeleteProject, &api.IDRequest{ID: id}, resp); err != nil {
		return nil, err
	}
	return resp.Files, nil
}

func (s *GRPCClient) ListProjectFiles(ctx context.Context, projectID string) ([]models.ProjectFile, error) {
	resp := &api.ProjectFilesResponse{}
	if err := s.call(ctx, api.MethodListProjectFiles, &api.ProjectFilesRequest{ProjectID: projectID}, resp); err != nil {
		return nil, err
	}
	return resp.Files, nil
}

func (s *GRPCClient) CreateFileUpload(ctx context.Context, req api.FileUploadRequest) (*api.FileUploadResponse, error) {
	resp := &api.FileUploadResponse{}
	if err := s.call(ctx, api.MethodCreateFileUpload, &req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *GRPCClient) GetFileDownloadURL(ctx context.Context, fileID string) (string, error) {
	resp := &api.URLResponse{}
	if err := s.call(ctx, api.MethodGetFileDownloadURL, &api.IDRequest{ID: fileID}, resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (s *GRPCClient) DeleteFile(ctx context.Context, fileID string) error {
	return s.call(ctx, api.MethodDeleteFile, &api.IDRequest{ID: fileID}, &api.Empty{})
}

func (s *GRPCClient) ListTeamMembers(ctx context.Context) ([]models.TeamMember, error) {
	resp := &api.TeamMembersResponse{}
	if err := s.call(ctx, api.MethodListTeamMembers, &api.Empty{}, resp); err != nil {
		return nil, err
	}
	return resp.Members, nil
}

func (s *GRPCClient) SaveTeamMember(ctx context.Context, m models.TeamMember) (*models.TeamMember, error) {
	resp := &api.TeamMemberResponse{}
	if err := s.call(ctx, api.MethodSaveTeamMember, &api.TeamMemberRequest{Member: m}, resp); err != nil {
		return nil, err
	}
	return &resp.Member, nil
}

func (s *GRPCClient) DeleteTeamMember(ctx context.Context, id string) error {
	return s.call(ctx, api.MethodDeleteTeamMember, &api.IDRequest{ID: id}, &api.Empty{})
}

func (s *GRPCClient) CreateAvatarUpload(ctx context.Context, fileName string) (*api.AvatarUploadResponse, error) {
	resp := &api.AvatarUploadResponse{}
	if err := s.call(ctx, api.MethodCreateAvatarUpload, &api.AvatarUploadRequest{FileName: fileName}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *GRPCClient) ListActivities(ctx context.Context, limit int) ([]models.Activity, error) {
	resp := &api.ActivitiesResponse{}
	if err := s.call(ctx, api.MethodListActivities, &api.ActivitiesRequest{Limit: limit}, resp); err != nil {
		return nil, err
	}
	return resp.Activities, nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}
	switch st.Code() {
	case codes.Unauthenticated:
		if st.Message() == "" || st.Message() == ErrUnauthorized.Error() {
			return ErrUnauthorized
		}
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.PermissionDenied:
		return ErrForbidden
	case codes.NotFound:
		return ErrNotFound
	case codes.AlreadyExists:
		return ErrAlreadyExists
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidArgument, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
