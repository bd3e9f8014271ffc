// Package session owns the client's view of who is signed in. A Session
// listens to the auth provider, derives role and permissions on every
// change, and answers the capability and project-access questions the
// commands ask before talking to the server.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/projecthub/internal/access"
	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/dmitrijs2005/projecthub/internal/models"
)

// State is the lifecycle position of a Session.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateLoading         State = "loading"
	StateAuthenticated   State = "authenticated"
)

// ErrStale is returned when a fetch finished after the principal changed or
// after the caller's context ended. The result is dropped.
var ErrStale = errors.New("session changed during fetch")

// AuthProvider is the backend authentication boundary. A nil principal with
// a nil error means "no session".
type AuthProvider interface {
	GetCurrentSession(ctx context.Context) (*access.Principal, error)
	OnAuthStateChange(fn func(user *access.Principal)) (unsubscribe func())
	SignInWithPassword(ctx context.Context, email, password string) (*access.Principal, error)
	SignUp(ctx context.Context, email, password string) (*access.Principal, error)
	SignOut(ctx context.Context) error
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	State       State
	Principal   *access.Principal
	Role        access.Role
	Permissions access.PermissionSet
}

// Session is safe for concurrent use. Provider events and bootstrap may
// write in either order; the last write wins.
type Session struct {
	provider   AuthProvider
	resolver   *access.Resolver
	adminEmail string
	logger     logging.Logger

	mu          sync.Mutex
	state       State
	principal   *access.Principal
	role        access.Role
	perms       access.PermissionSet
	epoch       uint64
	subscribed  bool
	closed      bool
	unsubscribe func()
	closeOnce   sync.Once
}

func New(provider AuthProvider, source access.ProjectSource, adminEmail string, logger logging.Logger) *Session {
	logger = logger.With("module", "session")
	return &Session{
		provider:   provider,
		resolver:   access.NewResolver(source, logger),
		adminEmail: adminEmail,
		logger:     logger,
		state:      StateUnauthenticated,
		perms:      access.DerivePermissions(access.NoRole),
	}
}

// Start enters loading, subscribes to provider events and resolves any
// existing session. A provider error leaves the session unauthenticated and
// is returned.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	s.transition(ctx, StateLoading)
	subscribe := !s.subscribed && !s.closed
	s.subscribed = true
	s.mu.Unlock()

	if subscribe {
		unsubscribe := s.provider.OnAuthStateChange(func(user *access.Principal) {
			s.apply(context.Background(), user, "auth event")
		})
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			unsubscribe()
		} else {
			s.unsubscribe = unsubscribe
			s.mu.Unlock()
		}
	}

	user, err := s.provider.GetCurrentSession(ctx)
	if err != nil {
		s.logger.Warn(ctx, "session bootstrap failed", "error", err)
		s.apply(ctx, nil, "bootstrap")
		return err
	}
	s.apply(ctx, user, "bootstrap")
	return nil
}

// Close stops listening to provider events. Only the first call has effect.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		unsubscribe := s.unsubscribe
		s.unsubscribe = nil
		s.closed = true
		s.mu.Unlock()
		if unsubscribe != nil {
			unsubscribe()
		}
	})
}

func (s *Session) SignIn(ctx context.Context, email, password string) error {
	user, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.logger.Info(ctx, "sign in failed", "email", email, "error", err)
		return err
	}
	s.apply(ctx, user, "sign in")
	return nil
}

func (s *Session) SignUp(ctx context.Context, email, password string) error {
	user, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		s.logger.Info(ctx, "sign up failed", "email", email, "error", err)
		return err
	}
	s.apply(ctx, user, "sign up")
	return nil
}

// SignOut asks the provider to end the session and clears local state no
// matter what the provider answered. The provider error is returned.
func (s *Session) SignOut(ctx context.Context) error {
	err := s.provider.SignOut(ctx)
	if err != nil {
		s.logger.Warn(ctx, "provider sign out failed", "error", err)
	}
	s.apply(ctx, nil, "sign out")
	return err
}

// apply replaces the principal and re-derives everything from it.
func (s *Session) apply(ctx context.Context, user *access.Principal, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user == nil {
		if s.principal != nil {
			s.epoch++
		}
		s.principal = nil
		s.role = access.NoRole
		s.perms = access.DerivePermissions(access.NoRole)
		s.transition(ctx, StateUnauthenticated, "reason", reason)
		return
	}

	u := *user
	if s.principal == nil || *s.principal != u {
		s.epoch++
	}
	s.principal = &u
	s.role = access.DeriveRole(&u, s.adminEmail)
	s.perms = access.DerivePermissions(s.role)
	s.transition(ctx, StateAuthenticated, "reason", reason, "email", u.Email, "role", s.role)
}

// transition must be called with mu held.
func (s *Session) transition(ctx context.Context, to State, args ...any) {
	from := s.state
	s.state = to
	s.logger.Info(ctx, "session state changed", append([]any{"from", from, "to", to}, args...)...)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Principal returns a copy of the signed-in principal, or nil.
func (s *Session) Principal() *access.Principal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.principal == nil {
		return nil
	}
	p := *s.principal
	return &p
}

func (s *Session) Role() access.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

func (s *Session) Permissions() access.PermissionSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.perms
}

// HasCapability is the one capability query commands use.
func (s *Session) HasCapability(c access.Capability) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.perms.Has(c)
}

// CanAccessProject applies the access-check gate for the current principal.
func (s *Session) CanAccessProject(p *models.Project) bool {
	s.mu.Lock()
	principal, role := s.principal, s.role
	s.mu.Unlock()
	return access.CanAccessProject(p, principal, role)
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{State: s.state, Role: s.role, Permissions: s.perms}
	if s.principal != nil {
		p := *s.principal
		snap.Principal = &p
	}
	return snap
}

// Projects returns the projects the current principal may see. The result
// is discarded with ErrStale if the principal changed while fetching, or
// with ctx.Err() if ctx ended first.
func (s *Session) Projects(ctx context.Context) ([]models.Project, error) {
	s.mu.Lock()
	var principal *access.Principal
	if s.principal != nil {
		p := *s.principal
		principal = &p
	}
	role, epoch := s.role, s.epoch
	s.mu.Unlock()

	projects := s.resolver.GetAssignedProjects(ctx, principal, role)

	s.mu.Lock()
	changed := s.epoch != epoch
	s.mu.Unlock()

	if changed {
		s.logger.Debug(ctx, "stale project result discarded", "principal_changed", true)
		return nil, ErrStale
	}
	if err := ctx.Err(); err != nil {
		s.logger.Debug(ctx, "project result discarded", "error", err)
		return nil, err
	}
	return projects, nil
}
