package cli

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/jobspy-mcp/internal/config"
	"github.com/cloo-solutions/jobspy-mcp/internal/database"
	"github.com/cloo-solutions/jobspy-mcp/internal/jobs"
	"github.com/cloo-solutions/jobspy-mcp/internal/normalize"
	"github.com/cloo-solutions/jobspy-mcp/internal/progress"
	"github.com/cloo-solutions/jobspy-mcp/internal/repository"
	"github.com/cloo-solutions/jobspy-mcp/internal/scraper"
	"github.com/cloo-solutions/jobspy-mcp/internal/service"
	"github.com/cloo-solutions/jobspy-mcp/internal/session"
	"github.com/cloo-solutions/jobspy-mcp/internal/storage"
	"github.com/cloo-solutions/jobspy-mcp/internal/validation"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

type appOptions struct {
	// migrate applies pending migrations after connecting.
	migrate bool
	// skipArchive leaves raw output out of S3 even when it is configured.
	skipArchive bool
}

// app is the wired search stack shared by the serve and search commands.
type app struct {
	cfg      *config.Config
	logger   logrus.FieldLogger
	registry *session.Registry
	search   *service.SearchService
	logs     *repository.SearchLogRepository
	pool     *pgxpool.Pool
}

func newApp(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger, opts appOptions) (*app, error) {
	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: session.NewRegistry(),
	}

	var searchOpts []service.SearchOption

	if cfg.HasDatabase() {
		pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.pool = pool
		logger.Info("connected to database")

		if opts.migrate {
			if err := database.Migrate(cfg.DatabaseURL, cfg.MigrationsDir, logger); err != nil {
				a.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		a.logs = repository.NewSearchLogRepository(pool)
		searchOpts = append(searchOpts, service.WithSearchLog(a.logs))
	}

	if cfg.HasS3() && !opts.skipArchive {
		archive, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		logger.WithField("bucket", cfg.S3Bucket).Info("S3 bucket ready")
		searchOpts = append(searchOpts, service.WithArchiver(archive))
	}

	validator := validation.NewValidator(
		validation.WithDefaultTimeout(cfg.TimeoutMS),
		validation.WithLogger(logger),
	)
	a.search = service.NewSearchService(
		validator,
		scraper.NewRunner(cfg.Runner(), logger),
		normalize.New(logger),
		progress.NewPublisher(a.registry, cfg.Progress(), logger),
		logger,
		searchOpts...,
	)

	return a, nil
}

// pruneWorker returns the search log retention worker, or nil when there is
// no database or retention is disabled.
func (a *app) pruneWorker() *jobs.Worker {
	if a.logs == nil || a.cfg.SearchLogRetention <= 0 {
		return nil
	}
	pruner := jobs.NewSearchLogPruner(a.logs, a.cfg.SearchLogRetention, a.logger)
	return jobs.NewWorker("search-log-pruner", pruner, a.cfg.PruneInterval, a.logger)
}

func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
