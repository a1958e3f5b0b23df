// Package control wires the daemon: configuration, cache store, journal
// database, entity services, and the health/metrics server.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/cache"
	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/core/config"
	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/infra/api"
	redisstore "github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/infra/redis"
	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/infra/storage/postgres"
	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/mutation"
	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/ops/health"
	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/portal"
	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/retry"
	"github.com/michaelayoade/dotmac-ftth-ops-sub007/internal/tenant"
)

// Config holds the application configuration.
type Config struct {
	Port          int
	API           api.Config
	Tenant        tenant.Config
	Retry         config.RetryConfig
	Redis         redisstore.Config
	Database      postgres.Config
	MigrationsDir string
}

// App is the assembled daemon.
type App struct {
	cfg          Config
	services     *portal.Services
	journal      *postgres.JournalRepo
	db           *postgres.DB
	redisStore   *redisstore.Store
	healthServer *health.Server
	log          *slog.Logger
}

// NewApp creates an App with all dependencies initialized.
func NewApp(cfg Config) (*App, error) {
	log := slog.Default()
	monitor := health.NewMonitor()

	// 1. Cache store: shared Redis when configured, process-local otherwise
	var store cache.Store
	var redisStore *redisstore.Store
	if cfg.Redis.URL != "" {
		var err error
		redisStore, err = redisstore.NewStore(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis store: %w", err)
		}
		store = redisStore
		monitor.Register("redis", redisStore)
		slog.Info("Using Redis cache store")
	} else {
		store = cache.NewMemory()
		slog.Info("Using in-memory cache store")
	}

	// 2. Optional mutation journal
	recorder := mutation.Recorder(mutation.NopRecorder{})
	var db *postgres.DB
	var journal *postgres.JournalRepo
	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}

		migrationsDir := cfg.MigrationsDir
		if migrationsDir == "" {
			migrationsDir = "migrations"
		}
		if err := db.Migrate(migrationsDir); err != nil {
			return nil, err
		}

		journal = postgres.NewJournalRepo(db, log)
		recorder = journal
		monitor.Register("database", db)
		slog.Info("Mutation journal enabled")
	}

	// 3. Tenant context. Subdomain/query/cookie sources are per-request
	// concerns; the daemon stamps the statically configured tenant.
	tenantID := cfg.Tenant.TenantID
	if cfg.Tenant.Source != "" && cfg.Tenant.Source != tenant.SourceHeader {
		slog.Warn("Ambient tenant source configured, using configured tenant id",
			"source", string(cfg.Tenant.Source))
	}

	// 4. Upstream API client and entity services
	client := api.NewClient(cfg.API, tenantID)
	opts := mutation.Options{
		Policy: &retry.Policy{
			Retries:   cfg.Retry.Retries,
			BaseDelay: cfg.Retry.BaseDelay,
		},
		Recorder: recorder,
		Logger:   log,
	}
	services := portal.NewServices(client, store, opts)

	monitor.Register("upstream", health.CheckerFunc(func(ctx context.Context) error {
		return pingUpstream(ctx, cfg.API)
	}))

	return &App{
		cfg:          cfg,
		services:     services,
		journal:      journal,
		db:           db,
		redisStore:   redisStore,
		healthServer: health.NewServer(monitor, cfg.Port),
		log:          log,
	}, nil
}

// Services exposes the entity services.
func (a *App) Services() *portal.Services {
	return a.services
}

// Journal exposes the mutation journal, nil when disabled.
func (a *App) Journal() *postgres.JournalRepo {
	return a.journal
}

// Start starts the health/metrics server.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.healthServer.Start(); err != nil && err != http.ErrServerClosed {
			a.log.Error("Health server failed", "error", err)
		}
	}()
	a.log.Info("Started", "port", a.cfg.Port)
	return nil
}

// Stop shuts everything down gracefully.
func (a *App) Stop(ctx context.Context) error {
	var firstErr error
	if err := a.healthServer.Stop(ctx); err != nil {
		firstErr = err
	}
	if a.redisStore != nil {
		if err := a.redisStore.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func pingUpstream(ctx context.Context, cfg api.Config) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("upstream unhealthy: %d", resp.StatusCode)
	}
	return nil
}
