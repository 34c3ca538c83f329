package main

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bryanwahyu/finadvisor/internal/application"
	appadvisory "github.com/bryanwahyu/finadvisor/internal/application/advisory"
	appfin "github.com/bryanwahyu/finadvisor/internal/application/financials"
	"github.com/bryanwahyu/finadvisor/internal/config"
	"github.com/bryanwahyu/finadvisor/internal/domain/advisory"
	domain "github.com/bryanwahyu/finadvisor/internal/domain/financials"
	"github.com/bryanwahyu/finadvisor/internal/domain/industry"
	"github.com/bryanwahyu/finadvisor/internal/infra/ai"
	"github.com/bryanwahyu/finadvisor/internal/infra/ai/anthropic"
	"github.com/bryanwahyu/finadvisor/internal/infra/ai/openai"
	"github.com/bryanwahyu/finadvisor/internal/infra/db"
	mysqlp "github.com/bryanwahyu/finadvisor/internal/infra/db/mysql"
	"github.com/bryanwahyu/finadvisor/internal/infra/db/postgres"
	"github.com/bryanwahyu/finadvisor/internal/infra/db/sqlite"
	"github.com/bryanwahyu/finadvisor/internal/infra/lock"
	"github.com/bryanwahyu/finadvisor/internal/infra/storage"
	"github.com/bryanwahyu/finadvisor/internal/middleware"
)

// app is the wired object graph behind the HTTP router.
type app struct {
	Financials *appfin.Service
	Advisory   *appadvisory.Service
	Checkers   map[string]middleware.HealthChecker
	Files      http.Handler

	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			zap.L().Warn("close failed", zap.Error(err))
		}
	}
}

func build(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{Checkers: map[string]middleware.HealthChecker{}}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	// record store
	conn, dialect, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, conn.Close)
	if err := db.Migrate(ctx, conn, dialect); err != nil {
		return nil, err
	}
	repo := db.NewRecordRepository(conn, dialect)
	a.Checkers["store"] = middleware.CheckFunc(repo.Ping)

	// document store
	docs, files, err := openDocuments(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Files = files
	a.Checkers["documents"] = middleware.CheckFunc(docs.Ping)

	// record locks
	var locker domain.Locker
	switch cfg.Lock.Driver {
	case "redis":
		client := lock.NewRedisClient(lock.RedisConfig{
			Address:  cfg.Lock.Redis.Address,
			Password: cfg.Lock.Redis.Password,
			DB:       cfg.Lock.Redis.DB,
		})
		a.closers = append(a.closers, client.Close)
		rl := lock.NewRedis(client, cfg.Lock.TTL)
		if err := rl.Ping(ctx); err != nil {
			return nil, err
		}
		a.Checkers["lock"] = middleware.CheckFunc(rl.Ping)
		locker = rl
	default:
		locker = lock.NewMemory()
	}

	industries, err := industry.Load(cfg.Analysis.IndustriesFile)
	if err != nil {
		return nil, err
	}

	advisor, err := newAdvisor(cfg)
	if err != nil {
		return nil, err
	}

	a.Financials = &appfin.Service{
		Repo:            repo,
		Documents:       docs,
		Advisor:         advisor,
		Locker:          locker,
		Industries:      industries,
		Clock:           application.SystemClock{},
		Policy:          appfin.Policy(cfg.Analysis.FailurePolicy),
		DefaultLanguage: cfg.Analysis.DefaultLanguage,
		MaxUploadBytes:  cfg.Upload.MaxBytes,
	}
	a.Advisory = appadvisory.NewService(advisor, industries)
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config) (*sql.DB, db.Dialect, error) {
	dsn := cfg.StoreDSN()
	switch cfg.Store.Driver {
	case "mysql":
		conn, err := mysqlp.Connect(ctx, dsn)
		return conn, mysqlp.Dialect, err
	case "postgres":
		conn, err := postgres.Connect(ctx, dsn)
		return conn, postgres.Dialect, err
	case "sqlite":
		conn, err := sqlite.Connect(ctx, dsn)
		return conn, sqlite.Dialect, err
	default:
		return nil, db.Dialect{}, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

type documentStore interface {
	domain.DocumentStore
	Ping(ctx context.Context) error
}

// openDocuments returns the document store and, for the local driver, the
// handler serving its files under /files.
func openDocuments(ctx context.Context, cfg *config.Config) (documentStore, http.Handler, error) {
	switch cfg.Storage.Driver {
	case "minio":
		m := cfg.Storage.Minio
		store, err := storage.New(ctx, storage.MinioConfig{
			Endpoint:  m.Endpoint,
			Region:    m.Region,
			Bucket:    m.BucketName,
			AccessKey: m.AccessKey,
			SecretKey: m.SecretKey,
			UseSSL:    m.UseSSL,
			PublicURL: m.PublicURL,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	default:
		local, err := storage.NewLocal(cfg.Storage.LocalDir, "/files")
		if err != nil {
			return nil, nil, err
		}
		return local, http.FileServer(http.Dir(local.Dir)), nil
	}
}

// newAdvisor picks the provider client and wraps it in the guard.
func newAdvisor(cfg *config.Config) (advisory.Client, error) {
	ac := cfg.Advisory
	if ac.APIKey == "" {
		zap.L().Warn("advisory api key is empty, advisory calls will fail",
			zap.String("provider", ac.Provider))
	}

	var client advisory.Client
	switch ac.Provider {
	case "openrouter", "openai":
		baseURL, model := ac.BaseURL, ac.Model
		if ac.Provider == "openai" {
			if baseURL == "" {
				baseURL = "https://api.openai.com/v1"
			}
			if model == "" {
				model = "gpt-4o-mini"
			}
		}
		client = openai.NewClient(openai.Config{
			APIKey:    ac.APIKey,
			Model:     model,
			BaseURL:   baseURL,
			MaxTokens: ac.MaxTokens,
		})
	case "anthropic":
		client = anthropic.NewClient(anthropic.Config{
			APIKey:    ac.APIKey,
			Model:     ac.Model,
			BaseURL:   ac.BaseURL,
			MaxTokens: int64(ac.MaxTokens),
		})
	default:
		return nil, eris.Errorf("unknown advisory provider %q", ac.Provider)
	}

	return ai.NewGuarded(client, ac.Provider, ai.GuardConfig{
		Timeout:       ac.Timeout,
		MaxAttempts:   ac.MaxAttempts,
		Backoff:       ac.Backoff,
		MaxConcurrent: ac.MaxConcurrent,
		QueueTimeout:  ac.QueueTimeout,
	}), nil
}
