package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/access"
	"github.com/dmitrijs2005/projecthub/internal/client/client"
	"github.com/dmitrijs2005/projecthub/internal/client/config"
	"github.com/dmitrijs2005/projecthub/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/projecthub/internal/client/services"
	"github.com/dmitrijs2005/projecthub/internal/client/session"
	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/dmitrijs2005/projecthub/internal/models"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// fileWorkflows is implemented by services.FileService.
type fileWorkflows interface {
	UploadFiles(ctx context.Context, projectID string, paths []string) []models.FileResult
	Download(ctx context.Context, file models.ProjectFile) (string, error)
	UploadAvatar(ctx context.Context, path string) (string, error)
}

// emailStore remembers the last address used to sign in.
type emailStore interface {
	LastEmail(ctx context.Context) (string, error)
	SaveLastEmail(ctx context.Context, email string) error
}

type App struct {
	config  *config.Config
	api     client.Client
	session *session.Session
	files   fileWorkflows
	emails  emailStore
	logger  logging.Logger
	reader  *bufio.Reader
	out     io.Writer
	now     func() time.Time
	closers []func() error

	mu   sync.RWMutex
	mode Mode
}

// NewApp opens the local session database, connects to the server and
// builds the session on top of that connection.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := client.InitDatabase(ctx, c.SessionDBPath)
	if err != nil {
		return nil, fmt.Errorf("init session database: %w", err)
	}

	store := metadata.NewSessionStore(metadata.NewSQLiteRepository(db))

	rpc, err := client.NewGRPCClient(ctx, c.ServerEndpointAddr, store, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a := &App{
		config:  c,
		api:     rpc,
		session: session.New(rpc, rpc, c.AdminEmail, logger),
		files:   services.NewFileService(rpc, c.DownloadDir, logger),
		emails:  store,
		logger:  logger,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		now:     time.Now,
	}
	a.closers = []func() error{rpc.Close, closeDB(db)}
	return a, nil
}

func closeDB(db *sql.DB) func() error {
	return func() error { return db.Close() }
}

// Close releases the session listener, the connection and the database.
func (a *App) Close() error {
	a.session.Close()
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func (a *App) Mode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.logger.Info(ctx, "connection mode changed", "mode", mode)
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.State() == session.StateAuthenticated
}

// require checks a capability before any server call is made.
func (a *App) require(c access.Capability) error {
	if !a.session.HasCapability(c) {
		return fmt.Errorf("%w: %s required", client.ErrForbidden, c)
	}
	return nil
}

// withTimeout bounds one server round trip by the configured request timeout.
func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config == nil || a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

// Run restores any stored session, starts the connectivity watcher and
// serves the prompt until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.out, "Welcome to ProjectHub (type 'help' for commands)")

	startCtx, stop := a.withTimeout(ctx)
	if err := a.session.Start(startCtx); err != nil {
		fmt.Fprintln(a.out, "Could not restore the previous session:", describe(err))
	}
	stop()

	if p := a.session.Principal(); p != nil {
		fmt.Fprintf(a.out, "Signed in as %s (%s)\n", p.Email, a.session.Role())
	}

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) getStatus() string {
	s := ""
	if p := a.session.Principal(); p != nil {
		s = p.Email + " "
	}
	if m := a.Mode(); m != "" {
		s += string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// StartOnlineStatusWatcher pings the server every interval and flips the
// mode between online and offline. It returns when ctx ends.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 3 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.api.Ping(pingCtx)
	cancel()

	if err != nil {
		a.logger.Debug(ctx, "ping failed", "error", err)
		a.setMode(ctx, ModeOffline)
		return
	}
	a.setMode(ctx, ModeOnline)
}
