package app

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"nordgrid/internal/clients"
	"nordgrid/internal/config"
	"nordgrid/internal/db"
	httpserver "nordgrid/internal/http"
	"nordgrid/internal/http/handlers"
	"nordgrid/internal/ingest"
	"nordgrid/internal/service"
	"nordgrid/internal/store"
	"nordgrid/internal/ws"
)

const migrateTimeout = 30 * time.Second

// App wires dashboard dependencies.
type App struct {
	server    *httpserver.Server
	scheduler *ingest.Scheduler
	limiter   *httpserver.RateLimiter
	db        *sql.DB
	logger    *zap.Logger
}

// New constructs application components. Failing to migrate the store is
// fatal: the process must not serve traffic against an unknown schema.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewSQLite(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	migrateCtx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()
	if err := store.Migrate(migrateCtx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	gridRepo := store.NewGridRepository(sqlDB)
	priceRepo := store.NewPriceRepository(sqlDB)

	gridClient := clients.NewStatnettClient(cfg.Upstream.GridURL, cfg.Upstream.Timeout, logger)
	priceClient := clients.NewNordpoolClient(cfg.Upstream.PriceURL, cfg.Upstream.Timeout, logger)

	job := ingest.NewJob(gridClient, priceClient, gridRepo, priceRepo, cfg.Ingest.RetentionDays, logger)
	scheduler := ingest.NewScheduler(job, cfg.Ingest.Interval, logger)

	hub := ws.NewHub(logger)
	scheduler.SetOnTick(func(summary ingest.Summary) {
		hub.Broadcast("ingestion", summary)
	})

	querySvc := service.NewQueryService(gridRepo, priceRepo, cfg.API.MaxDays, cfg.Currency.Rates, logger)

	routes := httpserver.Routes{
		Countries:          handlers.NewCountriesHandler(),
		Current:            handlers.NewCurrentHandler(querySvc),
		Status:             handlers.NewStatusHandler(querySvc),
		Types:              handlers.NewTypesHandler(querySvc),
		Series:             handlers.NewSeriesHandler(querySvc),
		Prices:             handlers.NewPricesHandler(querySvc),
		TodayTomorrow:      handlers.NewTodayTomorrowHandler(querySvc),
		Zones:              handlers.NewZonesHandler(querySvc),
		Correlation:        handlers.NewCorrelationHandler(querySvc),
		CorrelationSummary: handlers.NewCorrelationSummaryHandler(querySvc),
		Stats:              handlers.NewStatsHandler(querySvc),
		Health:             handlers.NewHealthHandler(sqlDB),
		Debug:              handlers.NewDebugHandler(scheduler, cfg.Internal.EnableDebug),
		FetchNow:           handlers.NewFetchNowHandler(scheduler),
		LiveWS:             hub.HandleWS,
	}

	limiter := httpserver.NewRateLimiter(cfg.API.RateLimitRPS)
	internalAuth := httpserver.InternalAuth(cfg.Internal.JWTSecret, logger)
	router := httpserver.NewRouter(routes, limiter, internalAuth, logger)
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:    server,
		scheduler: scheduler,
		limiter:   limiter,
		db:        sqlDB,
		logger:    logger,
	}, nil
}

// Run performs the initial ingestion, starts the scheduler, and serves HTTP
// until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	go func() {
		if _, err := a.scheduler.TriggerNow(ctx); err != nil {
			a.logger.Error("initial ingestion failed", zap.Error(err))
		}
	}()
	go a.scheduler.Run(ctx)
	go a.limiter.Cleanup(ctx.Done())

	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}
