// Package server wires the order store together: storage backend, order
// service and HTTP API, with graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/ordersync/internal/logging"
	"github.com/dmitrijs2005/ordersync/internal/server/config"
	"github.com/dmitrijs2005/ordersync/internal/server/httpapi"
	"github.com/dmitrijs2005/ordersync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ordersync/internal/server/services"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	service *services.OrderService
	server  *httpapi.Server
}

// openStorage returns the repository manager for cfg.Storage. The *sql.DB is
// nil for in-memory storage.
var openStorage = func(ctx context.Context, cfg *config.Config, logger logging.Logger) (*sql.DB, repomanager.RepositoryManager, error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn(ctx, "using in-memory storage, orders are lost on exit")
		return nil, repomanager.NewInMemoryRepositoryManager(), nil
	}

	db, err := repomanager.OpenPostgres(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}
	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return db, rm, nil
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewZerologLogger(os.Stdout, cfg.LogLevel, cfg.Development())
	return newApp(ctx, cfg, logger)
}

func newApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	db, rm, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	svc := services.NewOrderService(db, rm, cfg, logger)

	var health httpapi.HealthFunc
	if db != nil {
		health = db.PingContext
	}

	router := httpapi.NewRouter(httpapi.RouterDeps{
		Orders:    svc,
		Health:    health,
		JWTSecret: cfg.JWTSecret,
		Logger:    logger.With("module", "http"),
	})

	if cfg.JWTSecret == "" {
		logger.Warn(ctx, "no JWT secret configured, authentication is disabled")
	}

	return &App{
		config:  cfg,
		logger:  logger,
		db:      db,
		service: svc,
		server:  httpapi.NewServer(cfg.Addr, router, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a signal arrives or the server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.Storage, "env", app.config.Env)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(ctx, "close storage", "error", err)
	}
}

func (app *App) Close() error {
	if app.db == nil {
		return nil
	}
	return app.db.Close()
}
