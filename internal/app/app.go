// Package app initializes and holds long-lived application services, acting as
// a dependency injection container for the CLI commands.
package app

import (
	"context"
	"errors"
	"fmt"

	gcsstorage "cloud.google.com/go/storage"
	gpubsub "cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/JakeFAU/trivia-archive/internal/api"
	"github.com/JakeFAU/trivia-archive/internal/archive"
	gcscache "github.com/JakeFAU/trivia-archive/internal/cache/gcs"
	localcache "github.com/JakeFAU/trivia-archive/internal/cache/local"
	memorycache "github.com/JakeFAU/trivia-archive/internal/cache/memory"
	"github.com/JakeFAU/trivia-archive/internal/clock/system"
	"github.com/JakeFAU/trivia-archive/internal/config"
	"github.com/JakeFAU/trivia-archive/internal/fetcher"
	"github.com/JakeFAU/trivia-archive/internal/id/uuid"
	"github.com/JakeFAU/trivia-archive/internal/ingest"
	pubsubpublisher "github.com/JakeFAU/trivia-archive/internal/publisher/pubsub"
	"github.com/JakeFAU/trivia-archive/internal/season"
	"github.com/JakeFAU/trivia-archive/internal/storage/postgres"
	"github.com/JakeFAU/trivia-archive/internal/storage/sqlite"
)

// App holds the shared, long-lived services built from one Config.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	cache     archive.CacheStore
	repo      archive.Repository
	fetcher   *fetcher.Fetcher
	publisher archive.Publisher
	driver    *ingest.Driver

	closers []func() error
}

// New builds every service named by cfg. It fails fast; a missing schema
// surfaces as archive.ErrSchemaMissing.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger}

	cache, err := a.buildCache(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.cache = cache

	repo, err := a.buildRepository(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.repo = repo
	a.closers = append(a.closers, repo.Close)

	f, err := fetcher.New(fetcher.Config{
		BaseURL:        cfg.Source.BaseURL,
		ShowPath:       cfg.Source.ShowPath,
		SeasonPath:     cfg.Source.SeasonPath,
		UserAgent:      cfg.Fetch.UserAgent,
		MinInterval:    cfg.Fetch.MinInterval,
		Timeout:        cfg.Fetch.Timeout,
		MaxRetries:     cfg.Fetch.MaxRetries,
		BackoffInitial: cfg.Fetch.BackoffInitial,
		BackoffMax:     cfg.Fetch.BackoffMax,
	}, cache, logger.Named("fetcher"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init fetcher: %w", err)
	}
	a.fetcher = f

	pub, err := a.buildPublisher(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.publisher = pub

	a.driver = ingest.New(
		season.New(f, logger.Named("season")),
		f,
		repo,
		pub,
		uuid.New(),
		system.New(),
		ingest.Config{Limit: cfg.Ingest.Limit, Topic: cfg.Publish.Topic},
		logger.Named("ingest"),
	)

	logger.Info("application services initialized",
		zap.String("cache", cfg.Cache.Driver),
		zap.String("db", cfg.DB.Driver),
		zap.Bool("publish", pub != nil),
	)
	return a, nil
}

func (a *App) buildCache(ctx context.Context) (archive.CacheStore, error) {
	switch a.cfg.Cache.Driver {
	case config.CacheMemory:
		return memorycache.New(), nil
	case config.CacheGCS:
		client, err := gcsstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create gcs client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		store, err := gcscache.New(client, gcscache.Config{
			Bucket: a.cfg.Cache.GCSBucket,
			Prefix: a.cfg.Cache.GCSPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("init gcs cache: %w", err)
		}
		return store, nil
	default:
		store, err := localcache.New(localcache.Config{BaseDir: a.cfg.Cache.Dir})
		if err != nil {
			return nil, fmt.Errorf("init local cache: %w", err)
		}
		return store, nil
	}
}

func (a *App) buildRepository(ctx context.Context) (archive.Repository, error) {
	logger := a.logger.Named("storage")
	switch a.cfg.DB.Driver {
	case config.DBPostgres:
		store, err := postgres.New(ctx, postgres.Config{
			DSN:        a.cfg.DB.DSN,
			MaxConns:   a.cfg.DB.MaxConns,
			SchemaFile: a.cfg.DB.SchemaFile,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return store, nil
	default:
		store, err := sqlite.Open(ctx, sqlite.Config{
			Path:       a.cfg.DB.DSN,
			SchemaFile: a.cfg.DB.SchemaFile,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return store, nil
	}
}

func (a *App) buildPublisher(ctx context.Context) (archive.Publisher, error) {
	if a.cfg.Publish.Topic == "" {
		return nil, nil
	}
	client, err := gpubsub.NewClient(ctx, a.cfg.Publish.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	pub, err := pubsubpublisher.New(client)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("init publisher: %w", err)
	}
	a.closers = append(a.closers, pub.Close)
	return pub, nil
}

// Driver returns the ingestion driver.
func (a *App) Driver() *ingest.Driver {
	return a.driver
}

// Repository exposes the configured relational store.
func (a *App) Repository() archive.Repository {
	return a.repo
}

// Logger returns the root logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// APIServer builds the HTTP API over the repository.
func (a *App) APIServer() *api.Server {
	return api.NewServer(a.repo, api.Config{APIKey: a.cfg.Server.APIKey}, a.logger.Named("api"))
}

// Close releases services in reverse construction order. It is safe to call
// on a partially built App.
func (a *App) Close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("error closing application services", zap.Error(err))
	}
}
