package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/pulse-api/internal/api"
	"github.com/phrazzld/pulse-api/internal/api/middleware"
	"github.com/phrazzld/pulse-api/internal/config"
	"github.com/phrazzld/pulse-api/internal/domain"
	"github.com/phrazzld/pulse-api/internal/metrics"
	"github.com/phrazzld/pulse-api/internal/platform/filestore"
	"github.com/phrazzld/pulse-api/internal/platform/postgres"
	"github.com/phrazzld/pulse-api/internal/service"
	"github.com/phrazzld/pulse-api/internal/service/auth"
	"github.com/phrazzld/pulse-api/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// application holds the wired components of a running server.
type application struct {
	config   *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	records  store.RecordStore
	limiter  *middleware.RateLimiter
	handler  http.Handler

	// db is set only for the postgres backend.
	db *sql.DB
}

// newApplication builds the record store, services and router from cfg.
func newApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	log := slog.Default().With(slog.String("environment", cfg.Environment))

	app := &application{
		config:   cfg,
		logger:   log,
		registry: prometheus.NewRegistry(),
	}
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(app.registry)

	backend, err := app.openBackend(ctx)
	if err != nil {
		app.cleanup()
		return nil, err
	}
	app.records = metrics.NewInstrumentedStore(backend, collector)

	hasher, err := auth.NewHasher(cfg.Auth.HashAlgorithm, cfg.Auth.HashSecret)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create password hasher: %w", err)
	}

	opts := []service.Option{
		service.WithSessionTTL(cfg.Auth.SessionTTL),
		service.WithMaxChecks(cfg.Checks.MaxPerAccount),
		service.WithTargetPolicy(domain.TargetPolicy{BlockPrivate: cfg.Checks.BlockPrivateTargets}),
	}

	locks := store.NewKeyedMutex()
	accountStore := store.NewAccountCollection(app.records)
	sessionStore := store.NewSessionCollection(app.records)
	checkStore := store.NewCheckCollection(app.records)

	sessions, err := service.NewSessionService(sessionStore, accountStore, hasher, locks, log, opts...)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create session service: %w", err)
	}
	accounts, err := service.NewAccountService(accountStore, checkStore, sessions, hasher, locks, log, opts...)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create account service: %w", err)
	}
	checks, err := service.NewCheckService(checkStore, accountStore, sessions, locks, log, opts...)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create check service: %w", err)
	}

	if cfg.Auth.LoginRatePerMinute > 0 {
		app.limiter = middleware.NewRateLimiter(
			middleware.PerMinute(cfg.Auth.LoginRatePerMinute, cfg.Auth.LoginBurst),
			collector,
		)
	}

	app.handler, err = api.NewRouter(api.RouterConfig{
		Accounts:     accounts,
		Sessions:     sessions,
		Checks:       checks,
		Logger:       log,
		Recorder:     collector,
		Gatherer:     app.registry,
		LoginLimiter: app.limiter,
	})
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	log.Info("application initialized",
		slog.String("storage_backend", cfg.Storage.Backend),
		slog.String("hash_algorithm", cfg.Auth.HashAlgorithm),
		slog.Int("max_checks", cfg.Checks.MaxPerAccount),
		slog.Bool("login_rate_limited", app.limiter != nil))
	return app, nil
}

// openBackend opens the configured record store. The postgres backend
// applies pending migrations before use.
func (app *application) openBackend(ctx context.Context) (store.RecordStore, error) {
	cfg := app.config.Storage

	switch cfg.Backend {
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL, app.logger)
		if err != nil {
			return nil, err
		}
		app.db = db
		if err := postgres.Migrate(ctx, db, postgres.MigrateUp, app.logger); err != nil {
			return nil, err
		}
		return postgres.NewRecordStore(db, cfg.OpTimeout, app.logger)
	case config.BackendFile, "":
		s, err := filestore.New(cfg.Dir, cfg.OpTimeout, app.logger)
		if err != nil {
			return nil, err
		}
		app.logger.Info("using file storage", slog.String("dir", s.Root()))
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.limiter != nil {
		app.limiter.Stop()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", slog.String("error", err.Error()))
		}
		app.db = nil
	}
}
