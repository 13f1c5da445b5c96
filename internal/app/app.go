// Package app connects the stores, providers and engine described by the
// configuration. The worker manager and the CLI share it.
package app

import (
	"context"
	"fmt"
	"time"

	"readiness-workers/internal/archive"
	awsclient "readiness-workers/internal/common/aws"
	"readiness-workers/internal/common/cache"
	"readiness-workers/internal/common/config"
	"readiness-workers/internal/common/database"
	"readiness-workers/internal/common/logger"
	"readiness-workers/internal/common/observability"
	"readiness-workers/internal/common/validation"
	"readiness-workers/internal/models"
	"readiness-workers/internal/providers/forums"
	"readiness-workers/internal/providers/jobs"
	"readiness-workers/internal/providers/trends"
	"readiness-workers/internal/readiness/engine"
	"readiness-workers/internal/readiness/recommend"
	"readiness-workers/internal/repository"
	"readiness-workers/pkg/registry"
)

type Options struct {
	// ConnectAttempts bounds each connection attempt; values below 1 mean 1.
	ConnectAttempts int
	RetryDelay      time.Duration
	// Archive connects Elasticsearch and ensures the signal index.
	Archive bool
	// Notifications builds the SES mailer and, when enabled, the SNS
	// progress notifier.
	Notifications bool
	// Events receives engine progress events.
	Events chan<- models.ProgressEvent
	ServiceName string
}

type App struct {
	Config *config.Config
	Logger logger.Logger

	Postgres *database.PostgresClient
	Redis    *database.RedisClient
	SQLite   *database.SQLiteClient
	Elastic  *database.ElasticsearchClient

	Cache      cache.Store
	Repository *repository.PostgresRepository
	Archive    *archive.Archive

	Jobs          *jobs.Client
	StackExchange *forums.StackExchangeClient
	Reddit        *forums.RedditClient
	News          *trends.NewsClient
	HackerNews    *trends.HackerNewsClient

	Engine        *engine.Engine
	Observability *observability.Observability
	Mailer        *awsclient.SESClient

	Registry  *registry.ActivityRegistry
	Validator *validation.Validator

	closers []func() error
}

// New connects every backend the configuration selects. Postgres is always
// required since it holds transitions and scores.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts Options) (*App, error) {
	if opts.ConnectAttempts < 1 {
		opts.ConnectAttempts = 1
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	if opts.ServiceName == "" {
		opts.ServiceName = cfg.App.Name
	}

	a := &App{Config: cfg, Logger: log}
	if err := a.connect(ctx, opts); err != nil {
		a.Close()
		return nil, err
	}

	store, err := cache.New(ctx, cfg.Cache, a.cacheBackends())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("cache store: %w", err)
	}
	a.Cache = store

	a.Repository = repository.NewPostgresRepository(a.Postgres.DB)
	if err := a.Repository.EnsureSchema(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("repository schema: %w", err)
	}

	a.Jobs = jobs.NewClient(cfg.Providers.Jobs, store, log)
	a.StackExchange = forums.NewStackExchangeClient(cfg.Providers.StackExchange, store, log)
	a.Reddit = forums.NewRedditClient(cfg.Providers.Reddit, store, log)
	a.News = trends.NewNewsClient(cfg.Providers.News, store, log)
	a.HackerNews = trends.NewHackerNewsClient(cfg.Providers.HackerNews, store, log)

	if a.Elastic != nil {
		a.Archive = archive.New(a.Elastic.Client, cfg.Scoring.ArchiveIndex, log)
		if err := a.Archive.EnsureIndex(ctx); err != nil {
			log.Warn("signal archive index unavailable", map[string]interface{}{
				"index": a.Archive.Index(),
				"error": err,
			})
		}
	}

	var notifier engine.Notifier = engine.NopNotifier{}
	if opts.Notifications {
		notifier = a.notifications(ctx)
	}

	a.Observability = observability.New(opts.ServiceName, log)
	a.Engine = engine.New(engine.Options{
		Repository:      a.Repository,
		Jobs:            a.Jobs,
		Synthesizer:     recommend.New(log),
		Notifier:        notifier,
		Events:          opts.Events,
		JobListingLimit: cfg.Scoring.JobListingLimit,
		Observability:   a.Observability,
		Logger:          log,
	})

	a.loadRegistry()
	return a, nil
}

func (a *App) connect(ctx context.Context, opts Options) error {
	cfg := a.Config

	err := RetryWithBackoff(func() error {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return err
		}
		a.Postgres = pg
		return nil
	}, opts.ConnectAttempts, opts.RetryDelay, a.Logger, "PostgreSQL connection")
	if err != nil {
		return err
	}
	a.closers = append(a.closers, a.Postgres.Close)
	a.Logger.Info("PostgreSQL connected", nil)

	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		err = RetryWithBackoff(func() error {
			rc, err := database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			if err := rc.Ping(ctx); err != nil {
				rc.Close()
				return err
			}
			a.Redis = rc
			return nil
		}, opts.ConnectAttempts, opts.RetryDelay, a.Logger, "Redis connection")
		if err != nil {
			return err
		}
		a.closers = append(a.closers, a.Redis.Close)
		a.Logger.Info("Redis connected", nil)
	case config.CacheBackendSQLite:
		sc, err := database.NewSQLite(cfg.Database.SQLite)
		if err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
		a.SQLite = sc
		a.closers = append(a.closers, sc.Close)
		a.Logger.Info("SQLite cache opened", map[string]interface{}{"path": cfg.Database.SQLite.Path})
	}

	if opts.Archive && cfg.Database.Elasticsearch.GetURL() != "" {
		err = RetryWithBackoff(func() error {
			es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			if err := es.Ping(ctx); err != nil {
				return err
			}
			a.Elastic = es
			return nil
		}, opts.ConnectAttempts, opts.RetryDelay, a.Logger, "Elasticsearch connection")
		if err != nil {
			// The archive only backs signal search; scoring works without it.
			a.Logger.Warn("Elasticsearch unavailable, signal archive disabled", map[string]interface{}{"error": err})
		} else {
			a.Logger.Info("Elasticsearch connected", nil)
		}
	}
	return nil
}

func (a *App) cacheBackends() cache.Backends {
	b := cache.Backends{Postgres: a.Postgres.DB}
	if a.Redis != nil {
		b.Redis = a.Redis.Client
	}
	if a.SQLite != nil {
		b.SQLite = a.SQLite.DB
	}
	return b
}

func (a *App) notifications(ctx context.Context) engine.Notifier {
	cfg := a.Config.Notifications
	if cfg.Email.Enabled {
		ses, err := awsclient.NewSESClient(ctx, cfg.AWS.Region)
		if err != nil {
			a.Logger.Warn("SES client unavailable, summaries will not be emailed", map[string]interface{}{"error": err})
		} else {
			a.Mailer = ses
		}
	}

	if !cfg.Progress.Enabled || cfg.Progress.TopicARN == "" {
		return engine.NopNotifier{}
	}
	sns, err := awsclient.NewSNSClient(ctx, cfg.AWS.Region)
	if err != nil {
		a.Logger.Warn("SNS client unavailable, progress events stay local", map[string]interface{}{"error": err})
		return engine.NopNotifier{}
	}
	return engine.NewSNSNotifier(sns, cfg.Progress.TopicARN)
}

func (a *App) loadRegistry() {
	reg, err := registry.LoadRegistry(a.Config.RegistryPath)
	if err != nil {
		a.Logger.Warn("activity registry not loaded, job variables are not schema checked", map[string]interface{}{
			"path":  a.Config.RegistryPath,
			"error": err,
		})
		return
	}
	v, err := validation.NewValidator(reg)
	if err != nil {
		a.Logger.Warn("activity registry schemas invalid", map[string]interface{}{"error": err})
		return
	}
	a.Registry = reg
	a.Validator = v
}

// Activity returns the registered activity for taskType, or nil.
func (a *App) Activity(taskType string) *registry.Activity {
	if a.Registry == nil {
		return nil
	}
	act, _ := a.Registry.Find(taskType)
	return act
}

// Ping checks every connected backend and returns the failures by name.
func (a *App) Ping(ctx context.Context) map[string]error {
	failures := map[string]error{}
	if err := a.Postgres.Ping(ctx); err != nil {
		failures["postgres"] = err
	}
	if a.Redis != nil {
		if err := a.Redis.Ping(ctx); err != nil {
			failures["redis"] = err
		}
	}
	if a.SQLite != nil {
		if err := a.SQLite.Ping(ctx); err != nil {
			failures["sqlite"] = err
		}
	}
	if a.Elastic != nil {
		if err := a.Elastic.Ping(ctx); err != nil {
			failures["elasticsearch"] = err
		}
	}
	return failures
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("close failed", map[string]interface{}{"error": err})
		}
	}
	a.closers = nil
	a.Observability.Shutdown()
}

// RetryWithBackoff runs operation up to attempts times, doubling the delay
// after each failure.
func RetryWithBackoff(operation func() error, attempts int, initialDelay time.Duration, log logger.Logger, name string) error {
	var err error
	delay := initialDelay

	for i := 0; i < attempts; i++ {
		if err = operation(); err == nil {
			return nil
		}
		if i < attempts-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying", name), map[string]interface{}{
				"error":       err,
				"attempt":     i + 1,
				"maxAttempts": attempts,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, err)
}
