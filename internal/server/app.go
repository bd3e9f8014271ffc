// Package server wires the ProjectHub server together: database and
// migrations, object storage, the revocation list, services, the gRPC
// endpoint, the ops HTTP endpoint and the token cleanup job. It stops all of
// them on SIGINT, SIGTERM or SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/dmitrijs2005/projecthub/internal/server/config"
	gs "github.com/dmitrijs2005/projecthub/internal/server/grpc"
	"github.com/dmitrijs2005/projecthub/internal/server/jobs"
	"github.com/dmitrijs2005/projecthub/internal/server/metrics"
	"github.com/dmitrijs2005/projecthub/internal/server/ops"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/projecthub/internal/server/revocation"
	"github.com/dmitrijs2005/projecthub/internal/server/services"
	"github.com/dmitrijs2005/projecthub/internal/server/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	redis     *redis.Client
	registry  *prometheus.Registry
	grpc      *gs.GRPCServer
	ops       *ops.Server
	scheduler *jobs.Scheduler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogFormat, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store, err := storage.New(ctx, storage.Settings{
		Region:        c.S3Region,
		AccessKey:     c.S3RootUser,
		SecretKey:     c.S3RootPassword,
		BaseEndpoint:  c.S3BaseEndpoint,
		PublicBaseURL: c.S3PublicBaseURL,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	rc, err := revocation.NewRedisClient(ctx, c.RedisAddr)
	if err != nil {
		db.Close()
		return nil, err
	}
	revoked := revocation.New(rc)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewDBStatsCollector(db, "projecthub"))
	m := metrics.New(registry)

	users := services.NewUserService(db, rm, revoked, c, logger)
	svc := gs.Services{
		Users:      users,
		Projects:   services.NewProjectService(db, rm, store, m, c, logger),
		Team:       services.NewTeamService(db, rm, store, c, logger),
		Activities: services.NewActivityService(db, rm, c),
	}

	return &App{
		config:    c,
		logger:    logger,
		db:        db,
		redis:     rc,
		registry:  registry,
		grpc:      gs.NewGRPCServer(c.EndpointAddrGRPC, logger, svc, revoked, c.SecretKey, m.UnaryServerInterceptor()),
		ops:       ops.NewServer(c.OpsAddr, ops.NewRouter(db, registry), logger),
		scheduler: jobs.NewScheduler(users, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run blocks until a signal arrives or one of the servers fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	if err := app.scheduler.Start(ctx, app.config.TokenCleanupSchedule); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}

	var wg sync.WaitGroup
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				app.logger.Error(ctx, "server stopped with error", "server", name, "error", err)
				cancelFunc()
			}
		}()
	}
	run("grpc", app.grpc.Run)
	run("ops", app.ops.Run)

	wg.Wait()
	app.close(ctx)
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		_ = app.redis.Close()
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
