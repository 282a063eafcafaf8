package container

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/go-item-tracker/app/db"
	"github.com/FACorreiaa/go-item-tracker/app/observability/metrics"
	"github.com/FACorreiaa/go-item-tracker/config"
	"github.com/FACorreiaa/go-item-tracker/internal/api/auth"
	"github.com/FACorreiaa/go-item-tracker/internal/api/health"
	"github.com/FACorreiaa/go-item-tracker/internal/api/item"
	"github.com/FACorreiaa/go-item-tracker/internal/api/memstore"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *slog.Logger
	Pool          *pgxpool.Pool
	Tokens        *auth.TokenManager
	AuthHandler   *auth.AuthHandler
	ItemHandler   *item.ItemHandler
	HealthHandler *health.HealthHandler
}

// NewContainer opens the database pool and wires the postgres repositories
// into their services and handlers.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.AppMetrics) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(ctx, dbConfig, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	authRepo := auth.NewPostgresAuthRepo(pool, logger, m)
	itemRepo := item.NewPostgresItemRepo(pool, logger, m)

	c, err := NewWithRepos(cfg, logger, pool, authRepo, itemRepo, m)
	if err != nil {
		pool.Close()
		return nil, err
	}
	c.Pool = pool
	return c, nil
}

// NewInMemory wires the services over process-local stores. Data is lost on exit.
func NewInMemory(cfg *config.Config, logger *slog.Logger, m *metrics.AppMetrics) (*Container, error) {
	items := memstore.NewItemStore()
	c, err := NewWithRepos(cfg, logger, items, memstore.NewUserStore(), items, m)
	if err != nil {
		return nil, err
	}
	c.HealthHandler.WithServer(config.DriverMemory)
	return c, nil
}

// NewWithRepos wires services and handlers on top of the given repositories.
// The pinger backs the health probe.
func NewWithRepos(cfg *config.Config, logger *slog.Logger, pinger database.Pinger, authRepo auth.AuthRepo, itemRepo item.ItemRepo, m *metrics.AppMetrics) (*Container, error) {
	tokens, err := auth.NewTokenManager(cfg.JWT)
	if err != nil {
		logger.Error("Failed to initialize token manager", slog.Any("error", err))
		return nil, err
	}

	authService := auth.NewAuthService(authRepo, tokens, logger, m)
	itemService := item.NewItemService(itemRepo, logger, m)

	return &Container{
		Config:        cfg,
		Logger:        logger,
		Tokens:        tokens,
		AuthHandler:   auth.NewAuthHandler(authService, logger),
		ItemHandler:   item.NewItemHandler(itemService, logger),
		HealthHandler: health.NewHealthHandler(pinger, logger),
	}, nil
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	if c.Pool == nil {
		return true
	}
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}
