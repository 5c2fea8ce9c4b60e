// Package main provides the entrypoint for the TripGuard API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripguard/tripguard/internal/advisory"
	"github.com/tripguard/tripguard/internal/api"
	"github.com/tripguard/tripguard/internal/api/handler"
	"github.com/tripguard/tripguard/internal/api/middleware"
	"github.com/tripguard/tripguard/internal/app"
	"github.com/tripguard/tripguard/internal/config"
	"github.com/tripguard/tripguard/internal/database"
	"github.com/tripguard/tripguard/internal/profile"
	"github.com/tripguard/tripguard/internal/provider/resilience"
	"github.com/tripguard/tripguard/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "tripguard-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := app.NewBootLogger(os.Stderr, serviceName)
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := app.NewLogger(os.Stdout, cfg.App, serviceName, Version)
	log.Info().
		Str("build_time", BuildTime).
		Msg("starting TripGuard API")

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx := context.Background()

	// Initialize OpenTelemetry
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.App.Env,
		OTLPEndpoint:   cfg.OTel.Endpoint,
		Enabled:        cfg.OTel.Enabled,
		SampleRatio:    cfg.OTel.SampleRatio,
		Logger:         log,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTel.Enabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTel.Endpoint).
			Float64("sample_ratio", cfg.OTel.SampleRatio).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetricsWithMeter(tp.Meter)
	if err != nil {
		return err
	}

	// Profile store
	var (
		repo profile.Repository
		db   handler.Pinger
	)
	switch cfg.ProfileStore {
	case config.ProfileStorePostgres:
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()
		log.Info().
			Str("host", cfg.Database.Host).
			Int("port", cfg.Database.Port).
			Str("database", cfg.Database.Database).
			Msg("database connected")

		pgRepo := profile.NewPostgresRepository(pool)
		if err := pgRepo.Migrate(ctx); err != nil {
			return err
		}
		repo, db = pgRepo, pool
	default:
		repo = profile.NewInMemoryRepository()
		log.Warn().Msg("using in-memory profile store; profiles are lost on restart")
	}
	profiles := profile.NewService(repo)
	log.Info().Str("store", cfg.ProfileStore).Msg("profile service initialized")

	// Live data
	registry := resilience.NewRegistry()
	provider := app.NewLiveDataProvider(cfg.LiveData, registry, log)
	liveData := app.NewLiveDataService(cfg.LiveData, provider, tp.Meter, log)
	log.Info().
		Str("provider", liveData.ProviderName()).
		Dur("cache_ttl", cfg.LiveData.CacheTTL).
		Msg("live data service initialized")

	advisoryService, err := advisory.NewService(advisory.ServiceConfig{
		Profiles:   profiles,
		Conditions: liveData,
		Logger:     log.With().Str("component", "advisory").Logger(),
		Tracer:     tp.Tracer,
		Meter:      tp.Meter,
	})
	if err != nil {
		return err
	}

	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     metrics,
		RequireTLS:  cfg.RequireTLS,
		Advisory:    advisoryService,
		Profiles:    profiles,
		LiveData:    liveData,
		Registry:    registry,
		Database:    db,
	})

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case <-quit:
	}

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
