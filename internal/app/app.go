// Package app wires configuration into a running sync service: database,
// Keap client, sync pipeline, lock, archiver and the gRPC and HTTP triggers.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/rostersync/internal/config"
	"github.com/dmitrijs2005/rostersync/internal/fetcher"
	"github.com/dmitrijs2005/rostersync/internal/keap"
	"github.com/dmitrijs2005/rostersync/internal/lock"
	"github.com/dmitrijs2005/rostersync/internal/logging"
	"github.com/dmitrijs2005/rostersync/internal/reconciler"
	"github.com/dmitrijs2005/rostersync/internal/report"
	"github.com/dmitrijs2005/rostersync/internal/repositories/repomanager"
	"github.com/dmitrijs2005/rostersync/internal/server/httpapi"
	"github.com/dmitrijs2005/rostersync/internal/store"
	"github.com/dmitrijs2005/rostersync/internal/syncer"
	"github.com/dmitrijs2005/rostersync/internal/trigger"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/rostersync/internal/server/grpc"
)

// archivePrefix is the object key prefix for archived results.
const archivePrefix = "sync-results/"

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	rdb     *redis.Client
	service *trigger.Service
}

// Option adjusts wiring, mostly for tests.
type Option func(*options)

type options struct {
	httpClient *http.Client
}

// WithHTTPClient sets the client used for Keap requests.
func WithHTTPClient(h *http.Client) Option {
	return func(o *options) { o.httpClient = h }
}

// New opens the database, runs migrations and assembles the trigger service.
// The caller must Close the App.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger, opts ...Option) (*App, error) {
	o := &options{httpClient: &http.Client{Timeout: cfg.KeapTimeout}}
	for _, opt := range opts {
		opt(o)
	}

	if cfg.KeapAccessToken == "" {
		return nil, errors.New("keap access token is not configured")
	}

	db, repos, err := repomanager.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	a := &App{config: cfg, logger: logger, db: db}

	if err := a.build(ctx, repos, o); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, repos repomanager.RepositoryManager, o *options) error {
	cfg := a.config

	client, err := keap.NewClient(cfg.KeapBaseURL, keap.StaticToken(cfg.KeapAccessToken),
		keap.WithHTTPClient(o.httpClient),
		keap.WithRateLimit(cfg.KeapRequestsPerSecond))
	if err != nil {
		return err
	}

	st := store.New(a.db, repos, a.logger)
	f := fetcher.New(client, a.logger, fetcher.WithWorkers(cfg.DetailWorkers))
	rec := reconciler.New(st, reconciler.Options{SweepKeyless: cfg.SweepKeyless}, a.logger)
	runner := syncer.NewRunner(f, rec, st, a.logger, syncer.WithPageSize(cfg.PageSize))

	var locker lock.Locker = lock.NewLocal()
	if cfg.RedisAddr != "" {
		a.rdb, err = lock.DialRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		locker = lock.NewRedis(a.rdb, "", cfg.LockTTL)
	}

	svcOpts := []trigger.Option{
		trigger.WithDefaultTag(cfg.TagID),
		trigger.WithRosterFields(cfg.RosterFields),
	}
	if cfg.S3Bucket != "" {
		s3c, err := report.NewS3Client(ctx, report.S3Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
		})
		if err != nil {
			return err
		}
		svcOpts = append(svcOpts, trigger.WithArchiver(report.NewArchiver(s3c, cfg.S3Bucket, archivePrefix)))
	}

	a.service = trigger.NewService(runner, locker, st, a.logger, svcOpts...)
	return nil
}

// Service returns the trigger service, for one-shot runs.
func (a *App) Service() *trigger.Service {
	return a.service
}

// Run serves the gRPC and HTTP triggers until ctx is done, a termination
// signal arrives or either server fails.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	a.logger.Info(ctx, "Starting app...")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return gs.NewGRPCServer(a.config.EndpointAddrGRPC, a.service, a.logger).Run(ctx)
	})
	g.Go(func() error {
		return httpapi.NewHTTPServer(a.config.EndpointAddrHTTP, a.service, a.logger).Run(ctx)
	})

	err := g.Wait()
	a.logger.Info(context.WithoutCancel(ctx), "App stopped")
	return err
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	var errs []error
	if a.rdb != nil {
		errs = append(errs, a.rdb.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
