// Package app builds the service's object graph from configuration. The
// Lambda entry points and the HTTP server share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ignite/user-ingest/internal/api"
	"github.com/ignite/user-ingest/internal/config"
	"github.com/ignite/user-ingest/internal/domain"
	"github.com/ignite/user-ingest/internal/ingest"
	"github.com/ignite/user-ingest/internal/notify"
	"github.com/ignite/user-ingest/internal/pkg/distlock"
	"github.com/ignite/user-ingest/internal/pkg/logger"
	"github.com/ignite/user-ingest/internal/repository/postgres"
	"github.com/ignite/user-ingest/internal/storage"
	"github.com/ignite/user-ingest/internal/upload"
	"github.com/redis/go-redis/v9"
)

// App holds the long-lived dependencies of one process.
type App struct {
	Config     *config.Config
	Pool       *postgres.Pool
	LockPool   *postgres.Pool
	Redis      *redis.Client
	Store      *storage.S3Store
	Dispatcher *ingest.Dispatcher
	Authorizer *upload.Authorizer
	Health     *api.HealthChecker
}

// New wires every component. Nothing here dials the database; the pool opens
// on first use.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	ConfigureLogging(cfg.Logging)

	awsCfg, err := storage.LoadAWSConfig(ctx, storage.AWSConfig{
		Region:    cfg.Storage.Region,
		Profile:   cfg.Storage.GetAWSProfile(),
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	store := storage.NewS3Store(storage.NewS3Client(awsCfg, cfg.Storage.Endpoint))

	pool := postgres.NewPool(DatabaseConfig(cfg.Database))

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	a := &App{Config: cfg, Pool: pool, Redis: rdb, Store: store}

	var ingestOpts []ingest.IngestorOption
	locker, err := a.newObjectLocker(cfg.Ingest.ObjectLock, rdb)
	if err != nil {
		a.Close()
		return nil, err
	}
	if locker != nil {
		ingestOpts = append(ingestOpts, ingest.WithObjectLock(locker))
	}

	ingestor := ingest.NewIngestor(store, ingest.NewUpserter(postgres.NewBatchWriter(pool)), ingestOpts...)
	webhook := notify.NewWebhook(cfg.Notify.WebhookURL, cfg.Notify.Timeout(), nil)
	a.Dispatcher = ingest.NewDispatcher(ingestor, webhook,
		ingest.WithObjectFailureIsolation(cfg.Ingest.IsolateObjectFailures))

	a.Authorizer = upload.NewAuthorizer(upload.Config{
		Bucket: cfg.Storage.UploadBucket,
		Prefix: cfg.Storage.UploadPrefix,
		Expiry: cfg.Storage.UploadExpiry(),
	}, store)

	var redisPinger api.Pinger
	if rdb != nil {
		redisPinger = api.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	a.Health = api.NewHealthChecker(pool, redisPinger, store, cfg.Storage.UploadBucket)

	logger.Info("app initialized",
		"object_lock", cfg.Ingest.ObjectLock.Backend,
		"isolate_object_failures", cfg.Ingest.IsolateObjectFailures,
		"webhook", webhook.Enabled(),
		"s3_endpoint", cfg.Storage.Endpoint,
	)
	return a, nil
}

// newObjectLocker builds the per-object lock. Advisory locks pin their own
// connection until release, so they come from a separate pool and never wait
// behind the batch writer.
func (a *App) newObjectLocker(cfg config.ObjectLockConfig, rdb *redis.Client) (ingest.ObjectLocker, error) {
	switch cfg.Backend {
	case config.LockBackendNone:
		return nil, nil
	case config.LockBackendRedis:
		if rdb == nil {
			return nil, fmt.Errorf("%w: object lock backend redis needs REDIS_ADDR", domain.ErrConfiguration)
		}
		return distlock.NewRedisLocker(rdb, cfg.TTL()), nil
	case config.LockBackendPostgres:
		a.LockPool = postgres.NewPool(DatabaseConfig(a.Config.Database))
		return distlock.NewPGLocker(a.LockPool), nil
	default:
		return nil, fmt.Errorf("%w: unknown object lock backend %q", domain.ErrConfiguration, cfg.Backend)
	}
}

// DatabaseConfig converts the database section into pool settings.
func DatabaseConfig(c config.DatabaseConfig) postgres.Config {
	return postgres.Config{
		Host:           c.Host,
		Port:           c.Port,
		Name:           c.Name,
		User:           c.User,
		Password:       c.Password,
		SSLMode:        c.SSLMode,
		ConnectTimeout: c.ConnectTimeout(),
		MaxOpenConns:   c.MaxOpenConns,
	}
}

// ConfigureLogging applies the logging section to the process logger.
func ConfigureLogging(cfg config.LoggingConfig) {
	logger.SetLevel(logger.ParseLevel(cfg.Level))
	logger.SetRedactPII(cfg.RedactPII)
}

// Router returns the HTTP handler for the server entry point.
func (a *App) Router() http.Handler {
	return api.NewRouter(api.NewHandlers(a.Dispatcher, a.Authorizer), a.Health)
}

// Close releases the database pools and the Redis client.
func (a *App) Close() error {
	var errs []error
	if a.Pool != nil {
		errs = append(errs, a.Pool.Close())
	}
	if a.LockPool != nil {
		errs = append(errs, a.LockPool.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	return errors.Join(errs...)
}
