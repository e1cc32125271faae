// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/JakeFAU/aero-news-crawler/internal/classify"
	"github.com/JakeFAU/aero-news-crawler/internal/config"
	"github.com/JakeFAU/aero-news-crawler/internal/dispatcher"
	"github.com/JakeFAU/aero-news-crawler/internal/extract"
	collyfetcher "github.com/JakeFAU/aero-news-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/aero-news-crawler/internal/imaging"
	"github.com/JakeFAU/aero-news-crawler/internal/metrics"
	"github.com/JakeFAU/aero-news-crawler/internal/news"
	"github.com/JakeFAU/aero-news-crawler/internal/pipeline"
	"github.com/JakeFAU/aero-news-crawler/internal/policy/ratelimit"
	"github.com/JakeFAU/aero-news-crawler/internal/storage/local"
	"github.com/JakeFAU/aero-news-crawler/internal/storage/postgres"
	"github.com/JakeFAU/aero-news-crawler/internal/storage/sqlite"
)

// App holds the shared, long-lived services. It is built once at startup and
// closed when the command finishes. A reader App has no dispatcher.
type App struct {
	cfg        config.Config
	logger     *zap.Logger
	store      news.Store
	imageDir   string
	dispatcher *dispatcher.Dispatcher
}

// New wires every component from cfg. It fails fast if the store or the image
// directory cannot be initialized.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()

	store, err := OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	classifier := classify.New(cfg.Taxonomy)

	images, err := local.New(local.Config{BaseDir: cfg.Images.Dir})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init image dir: %w", err)
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:     cfg.Fetch.UserAgent,
		RespectRobots: cfg.Fetch.RespectRobots,
		Timeout:       cfg.Fetch.Timeout,
		Limiter: ratelimit.New(ratelimit.Config{
			PerHostRPS:   cfg.Fetch.PerHostRPS,
			PerHostBurst: cfg.Fetch.PerHostBurst,
		}),
	})
	acquirer := imaging.New(imaging.Config{
		MinBytes:  cfg.Images.MinBytes,
		Timeout:   cfg.Images.Timeout,
		Extension: cfg.Images.Extension,
		UserAgent: cfg.Images.UserAgent,
	}, images, logger.Named("imaging"))

	processor := pipeline.New(
		pipeline.Config{
			MaxLinks:     cfg.Pipeline.MaxLinksPerSite,
			Quota:        cfg.Pipeline.ArticlesPerSite,
			MinBodyChars: cfg.Pipeline.MinBodyChars,
		},
		extract.New(fetcher, logger),
		store,
		classifier,
		acquirer,
		logger,
	)

	logger.Info("application services initialized",
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("image_dir", images.Dir()),
		zap.Int("concurrency", cfg.Pipeline.Concurrency),
		zap.Strings("categories", classifier.Names()),
	)

	return &App{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		imageDir:   images.Dir(),
		dispatcher: dispatcher.New(processor, cfg.Pipeline.Concurrency, logger),
	}, nil
}

// NewReader builds the read side only: the store is opened read-only, the
// image directory is resolved but never created, and no ingestion services
// are built.
func NewReader(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()

	store, err := OpenStoreReadOnly(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	imageDir := filepath.Clean(cfg.Images.Dir)
	if info, err := os.Stat(imageDir); err != nil || !info.IsDir() {
		logger.Warn("image directory unavailable; images will not be served",
			zap.String("image_dir", imageDir),
			zap.Error(err),
		)
	}

	logger.Info("read services initialized",
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("image_dir", imageDir),
	)
	return &App{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		imageDir: imageDir,
	}, nil
}

// OpenStore opens the configured article store and ensures its schema.
func OpenStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (news.Store, error) {
	return openStore(ctx, cfg, false, logger)
}

// OpenStoreReadOnly opens an existing store without creating or migrating it.
func OpenStoreReadOnly(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (news.Store, error) {
	return openStore(ctx, cfg, true, logger)
}

func openStore(ctx context.Context, cfg config.StoreConfig, readOnly bool, logger *zap.Logger) (news.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		open := sqlite.Open
		if readOnly {
			open = sqlite.OpenReadOnly
		}
		store, err := open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Debug("sqlite store opened", zap.String("path", store.Path()), zap.Bool("read_only", readOnly))
		return store, nil
	case config.DriverPostgres:
		store, err := postgres.NewArticleStore(ctx, postgres.ArticleStoreConfig{
			DSN:      cfg.DSN,
			Table:    cfg.Table,
			MaxConns: cfg.MaxConns,
			ReadOnly: readOnly,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// Config returns the immutable configuration the app was built from.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Store exposes the article store.
func (a *App) Store() news.Store {
	return a.store
}

// ImageDir returns the directory accepted images are written to.
func (a *App) ImageDir() string {
	return a.imageDir
}

// Dispatcher returns the site worker pool, or nil for a reader App.
func (a *App) Dispatcher() *dispatcher.Dispatcher {
	return a.dispatcher
}

// Close releases the store and flushes the logger.
func (a *App) Close() {
	if a == nil {
		return
	}
	a.logger.Info("shutting down application services")
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("error closing store", zap.Error(err))
		}
	}
	_ = a.logger.Sync() //nolint:errcheck // stderr sync fails on some terminals
}
