package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/UnknownOlympus/geobatch/internal/config"
	"github.com/UnknownOlympus/geobatch/internal/geocoding"
	"github.com/UnknownOlympus/geobatch/internal/metrics"
	"github.com/UnknownOlympus/geobatch/internal/repository"
	"github.com/UnknownOlympus/geobatch/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// app holds the dependencies shared by the commands.
type app struct {
	reg      *prometheus.Registry
	metrics  *metrics.Metrics
	provider geocoding.Provider
	areas    geocoding.AdminAreaLookup
	recorder service.Recorder
	repo     *repository.Repository
	pool     *pgxpool.Pool
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:      geocoding.ProviderType(cfg.ProviderType),
		BaseURL:   cfg.BaseURL(),
		APIKey:    cfg.APIKey,
		RateLimit: cfg.RateLimit,
		Timeout:   cfg.Timeout,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create geocoding provider: %w", err)
	}
	logger.InfoContext(ctx, "Geocoding provider initialized", "type", cfg.ProviderType, "url", cfg.BaseURL())

	application := &app{reg: reg, metrics: metrics.NewMetrics(reg), provider: provider}

	if cfg.AdminAreas {
		client := &http.Client{Timeout: cfg.Timeout}
		application.areas = geocoding.NewWFSAdminAreaLookup(client, geocoding.OpenMapsWFSURL, logger)
	}

	if cfg.Database.Enabled() {
		pool, errDB := repository.NewDatabase(ctx,
			cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
		)
		if errDB != nil {
			return nil, fmt.Errorf("failed to connect to DB: %w", errDB)
		}

		repo := repository.NewRepository(pool, logger)
		if errDB = repo.EnsureSchema(ctx); errDB != nil {
			pool.Close()
			return nil, errDB
		}

		application.pool = pool
		application.repo = repo
		application.recorder = repo
		logger.InfoContext(ctx, "Result persistence enabled", "host", cfg.Database.Host)
	}

	return application, nil
}

// options returns the batch options derived from the configuration.
func (a *app) options(onStatus func(string)) service.Options {
	return service.Options{
		Request:      cfg.Request(),
		ProviderName: cfg.ProviderType,
		AdminAreas:   a.areas != nil,
		MapEnv:       cfg.MapEnv(),
		Concurrency:  cfg.Concurrency,
		OnStatus:     onStatus,
	}
}

func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
