package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/tablesync/internal/api"
	"github.com/mcoot/tablesync/internal/config"
	"github.com/mcoot/tablesync/internal/dependencies/clock"
	"github.com/mcoot/tablesync/internal/dependencies/random"
	"github.com/mcoot/tablesync/internal/metrics"
	"github.com/mcoot/tablesync/internal/realtime"
	"github.com/mcoot/tablesync/internal/services/auth"
	"github.com/mcoot/tablesync/internal/services/session"
	"github.com/mcoot/tablesync/internal/storage"
	"github.com/mcoot/tablesync/internal/storage/memory"
	"github.com/mcoot/tablesync/internal/storage/postgres"
	redisstorage "github.com/mcoot/tablesync/internal/storage/redis"
	"github.com/mcoot/tablesync/internal/storage/sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Store storage.Store

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Gate       *auth.Gate
	Router     *session.Router
	Hub        *realtime.Hub
	Dispatcher *realtime.Dispatcher
	Metrics    *metrics.Recorder

	// Handler serves the HTTP API, persistent channels and /metrics
	Handler http.Handler
}

// Config holds configuration for the application factory
type Config struct {
	// HostPassword is the shared host secret (required)
	HostPassword string
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend
	// If empty, defaults to "memory"
	StorageType string
	// SQLitePath is the database file for the sqlite backend
	SQLitePath string
	// DatabaseURL is the connection string for the postgres backend
	DatabaseURL string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// Session holds router settings
	// If zero value, defaults to session.DefaultConfig()
	Session session.Config
}

// FromServerConfig maps environment settings to factory configuration
func FromServerConfig(cfg config.Config, logger *slog.Logger) Config {
	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = cfg.RedisURL
	return Config{
		HostPassword: cfg.HostPassword,
		Logger:       logger,
		StorageType:  cfg.StorageType,
		SQLitePath:   cfg.SQLitePath,
		DatabaseURL:  cfg.DatabaseURL,
		RedisConfig:  &redisCfg,
		Session: session.Config{
			OpTimeout: cfg.OpTimeout,
			DiceSides: cfg.DiceSides,
		},
	}
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	gate, err := auth.NewGate(cfg.HostPassword)
	if err != nil {
		return nil, fmt.Errorf("host password: %w", err)
	}

	clk := clock.New()
	store, err := openStore(ctx, cfg, clk)
	if err != nil {
		return nil, err
	}

	return newWithDependencies(store, gate, clk, random.New(), metrics.New(), cfg.Session, logger), nil
}

func openStore(ctx context.Context, cfg Config, clk clock.Clock) (storage.Store, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = config.StorageMemory
	}

	switch storageType {
	case config.StorageMemory:
		return memory.New(clk), nil
	case config.StorageSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath, clk)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	case config.StoragePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DatabaseURL required when StorageType is postgres")
		}
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		store, err := postgres.Connect(connectCtx, postgres.DefaultConfig(cfg.DatabaseURL), clk)
		if err != nil {
			return nil, fmt.Errorf("connect postgres store: %w", err)
		}
		return store, nil
	case config.StorageRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		store, err := redisstorage.New(*cfg.RedisConfig, clk)
		if err != nil {
			return nil, fmt.Errorf("connect redis store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("invalid StorageType %q", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Store,
	gate *auth.Gate,
	clk clock.Clock,
	rnd random.Random,
	recorder *metrics.Recorder,
	sessionCfg session.Config,
	logger *slog.Logger,
) *App {
	hub := realtime.NewHub(logger, recorder)
	router := session.NewRouter(store, hub, clk, rnd, recorder, logger, sessionCfg)
	dispatcher := realtime.NewDispatcher(router, gate, hub, logger)

	handler := api.NewRouter(api.RouterConfig{
		Logger:   logger,
		Session:  router,
		Gate:     gate,
		Realtime: realtime.NewHandler(hub, dispatcher, gate, logger),
		Metrics:  recorder,
	})

	return &App{
		Store:      store,
		Clock:      clk,
		Random:     rnd,
		Gate:       gate,
		Router:     router,
		Hub:        hub,
		Dispatcher: dispatcher,
		Metrics:    recorder,
		Handler:    handler,
	}
}

// Close releases the store. The hub must be stopped separately.
func (a *App) Close() error {
	return a.Store.Close()
}
