package cli

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/macrolens/scanner/config"
	"github.com/macrolens/scanner/internal/domain"
	"github.com/macrolens/scanner/internal/infrastructure/cache"
	"github.com/macrolens/scanner/internal/infrastructure/logger"
	"github.com/macrolens/scanner/internal/infrastructure/remote"
	"github.com/macrolens/scanner/internal/infrastructure/sqlite"
	"github.com/macrolens/scanner/internal/usecase"
)

// writeThroughSlack is added to the remote timeout so a fetched product
// still gets cached when the fetch itself used most of its budget
const writeThroughSlack = 2 * time.Second

// App is the wired set of services every command works against
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Store    domain.ProductStore
	Remote   domain.RemoteClient
	Monitor  *usecase.ConnectivityMonitor
	Resolver *usecase.ResolutionService
	Syncer   *usecase.SyncService
	Profile  *usecase.ProfileService
}

// AppFactory builds the App for a command invocation
type AppFactory func(opts *RootOptions) (*App, error)

// LoadApp reads configuration and opens the configured store
func LoadApp(opts *RootOptions) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if opts != nil && opts.Verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Config{Environment: cfg.Server.Environment, Level: level})
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg.Cache)
	if err != nil {
		return nil, err
	}

	client := remote.NewClient(cfg.Remote.BaseURL, remote.Options{
		Timeout:          cfg.Remote.Timeout,
		PingTimeout:      cfg.Remote.PingTimeout,
		SyncTimeout:      cfg.Remote.SyncTimeout,
		MaxRetries:       cfg.Remote.MaxRetries,
		RateLimit:        cfg.Remote.RateLimit,
		RateBurst:        cfg.Remote.RateBurst,
		HealthyThreshold: cfg.Health.Threshold,
	}, log)
	client.SetDebug(cfg.Server.Environment == "development")

	log.Debug("app configured",
		zap.String("environment", cfg.Server.Environment),
		zap.String("remote", cfg.Remote.BaseURL),
		zap.String("cache", cfg.Cache.Type))

	return NewApp(cfg, log, store, client), nil
}

func openStore(cfg config.CacheConfig) (domain.ProductStore, error) {
	switch cfg.Type {
	case "memory":
		return cache.NewMemoryStore(), nil
	case "sqlite":
		store, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open cache %s: %w", cfg.Path, err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
}

// NewApp wires the services around a store and a remote client
func NewApp(cfg *config.Config, log *zap.Logger, store domain.ProductStore, client domain.RemoteClient) *App {
	if log == nil {
		log = zap.NewNop()
	}

	monitor := usecase.NewConnectivityMonitor(client, cfg.Connectivity.Freshness, log)
	profile := usecase.NewProfileService(store, log)
	finder := usecase.NewAlternativeFinder(store, cfg.Health.Threshold, cfg.Health.AlternativesLimit, log)

	return &App{
		Config:  cfg,
		Logger:  log,
		Store:   store,
		Remote:  client,
		Monitor: monitor,
		Resolver: usecase.NewResolutionService(store, client, monitor, finder, profile, usecase.ResolutionServiceConfig{
			HealthyThreshold: cfg.Health.Threshold,
			RemoteTimeout:    cfg.Remote.Timeout + writeThroughSlack,
		}, log),
		Syncer:  usecase.NewSyncService(store, client, monitor, cfg.Health.Threshold, log),
		Profile: profile,
	}
}

// Close releases the store and flushes the logger
func (a *App) Close() error {
	_ = a.Logger.Sync()
	return a.Store.Close()
}
