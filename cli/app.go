package cli

import (
	"context"

	"github.com/restfetch/restfetch/cache"
	"github.com/restfetch/restfetch/client"
	"github.com/restfetch/restfetch/config"
	"github.com/restfetch/restfetch/logger"
	"github.com/restfetch/restfetch/metrics"
	"github.com/restfetch/restfetch/service"
	"github.com/restfetch/restfetch/types"
)

// Cache keys: one per resource collection.
const (
	keyPosts = "posts"
	keyUsers = "users"
)

// App wires the components together: config → logger → metrics → cache →
// client → orchestrator. Built once per process, after flag parsing.
type App struct {
	Config       *types.AppConfig
	Logger       types.Logger
	Metrics      types.MetricsManager
	Cache        types.CacheStore
	Fetcher      types.Fetcher
	Orchestrator *service.Orchestrator
}

func NewApp(ctx context.Context, configPath string, verbose bool) (*App, error) {
	cfg, err := config.NewLoader().Load(configPath)
	if err != nil {
		return nil, err
	}

	if verbose {
		cfg.Logger.Level = "debug"
	}

	log, err := logger.NewDefaultLogger(cfg.Logger)
	if err != nil {
		return nil, err
	}

	metricsManager, err := metrics.NewManager(log, cfg.Metrics)
	if err != nil {
		return nil, err
	}

	cacheStore, err := cache.NewCacheStore(ctx, log, metricsManager, cfg.Cache)
	if err != nil {
		return nil, err
	}

	fetcher := client.NewHTTPClient(log, metricsManager, cfg.Client)

	return &App{
		Config:       cfg,
		Logger:       log,
		Metrics:      metricsManager,
		Cache:        cacheStore,
		Fetcher:      fetcher,
		Orchestrator: service.NewOrchestrator(log, cacheStore),
	}, nil
}

func (a *App) Close() error {
	return a.Cache.Close()
}

// fetchFn binds the fetcher to a fixed resource path for the orchestrator.
func (a *App) fetchFn(resourcePath string) types.FetchFunc {
	return func(ctx context.Context) ([]types.Record, error) {
		return a.Fetcher.Fetch(ctx, resourcePath)
	}
}
