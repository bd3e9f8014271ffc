// Package grpc exposes the server services over gRPC using the hand-written
// descriptor and JSON codec of package api.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/access"
	"github.com/dmitrijs2005/projecthub/internal/api"
	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/dmitrijs2005/projecthub/internal/models"
	"github.com/dmitrijs2005/projecthub/internal/server/revocation"
	"github.com/dmitrijs2005/projecthub/internal/server/services"
	"google.golang.org/grpc"
)

type UserService interface {
	SignUp(ctx context.Context, email, password string) (*services.TokenPair, error)
	SignIn(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	SignOut(ctx context.Context, refreshToken, accessTokenID string, accessExpires time.Time) error
	CurrentUser(ctx context.Context) (access.Principal, access.Role, error)
}

type ProjectService interface {
	List(ctx context.Context) ([]models.Project, error)
	Get(ctx context.Context, id string) (*models.Project, error)
	Create(ctx context.Context, p *models.Project) (*models.Project, error)
	Update(ctx context.Context, p *models.Project) (*models.Project, error)
	Delete(ctx context.Context, id string) ([]models.FileResult, error)
	ListFiles(ctx context.Context, projectID string) ([]models.ProjectFile, error)
	CreateFileUpload(ctx context.Context, projectID, fileName string, size int64, contentType string) (*models.ProjectFile, string, error)
	GetFileDownloadURL(ctx context.Context, fileID string) (string, error)
	DeleteFile(ctx context.Context, fileID string) error
}

type TeamService interface {
	List(ctx context.Context) ([]models.TeamMember, error)
	Save(ctx context.Context, m *models.TeamMember) (*models.TeamMember, error)
	Delete(ctx context.Context, id string) error
	CreateAvatarUpload(ctx context.Context, fileName string) (string, string, error)
}

type ActivityService interface {
	ListRecent(ctx context.Context, limit int) ([]models.Activity, error)
}

// Services groups what the handlers call into.
type Services struct {
	Users      UserService
	Projects   ProjectService
	Team       TeamService
	Activities ActivityService
}

type GRPCServer struct {
	address      string
	svc          Services
	revoked      revocation.List
	logger       logging.Logger
	jwtSecret    []byte
	interceptors []grpc.UnaryServerInterceptor
}

// NewGRPCServer builds the server. Extra interceptors run before
// authentication, in the order given.
func NewGRPCServer(a string, l logging.Logger, svc Services, revoked revocation.List, secretKey string,
	interceptors ...grpc.UnaryServerInterceptor) *GRPCServer {
	return &GRPCServer{
		address:      a,
		svc:          svc,
		revoked:      revoked,
		logger:       l.With("module", "grpc_server"),
		jwtSecret:    []byte(secretKey),
		interceptors: interceptors,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	chain := append(append([]grpc.UnaryServerInterceptor{}, s.interceptors...), s.accessTokenInterceptor)
	srv := grpc.NewServer(
		grpc.ForceServerCodec(api.Codec{}),
		grpc.ChainUnaryInterceptor(chain...),
	)
	api.RegisterProjectHubServer(srv, &handler{svc: s.svc, logger: s.logger})
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on l until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, l net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", l.Addr().String())
	return srv.Serve(l)
}
