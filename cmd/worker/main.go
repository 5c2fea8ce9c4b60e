// Package main provides the entrypoint for the TripGuard worker, which keeps
// the live conditions cache warm and serves Pub/Sub jobs.
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

	"github.com/tripguard/tripguard/internal/app"
	"github.com/tripguard/tripguard/internal/config"
	"github.com/tripguard/tripguard/internal/provider/resilience"
	"github.com/tripguard/tripguard/internal/telemetry"
	"github.com/tripguard/tripguard/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "tripguard-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := app.NewBootLogger(os.Stderr, serviceName)
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := app.NewLogger(os.Stdout, cfg.App, serviceName, Version)
	log.Info().
		Str("build_time", BuildTime).
		Msg("starting TripGuard worker")

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("worker exited with error")
		os.Exit(1)
	}
	log.Info().Msg("worker stopped")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	registry := resilience.NewRegistry()
	provider := app.NewLiveDataProvider(cfg.LiveData, registry, log)
	liveData := app.NewLiveDataService(cfg.LiveData, provider, tp.Meter, log)

	refreshCfg := worker.DefaultRefreshConfig()
	refreshCfg.Concurrency = cfg.Refresh.Concurrency
	refreshCfg.Timeout = cfg.Refresh.Timeout
	refreshCfg.HorizonDays = cfg.Refresh.HorizonDays

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:    refreshCfg,
		Logger:    log.With().Str("component", "refresh").Logger(),
		Refresher: liveData,
	})

	// Health endpoint for the platform's liveness checks
	server := &http.Server{
		Addr: ":" + cfg.Refresh.HealthPort,
		Handler: worker.NewHealthRouter(worker.HealthConfig{
			Version:    Version,
			RefreshJob: job,
			Logger:     log,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
			stop()
		}
	}()

	if cfg.PubSub.Subscription != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSub.ProjectID,
			SubscriptionName: cfg.PubSub.Subscription,
			RefreshJob:       job,
			Logger:           log.With().Str("component", "pubsub").Logger(),
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := handler.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close pubsub client")
			}
		}()

		go func() {
			if err := handler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	}

	log.Info().
		Dur("interval", cfg.Refresh.Interval).
		Int("tasks", refreshCfg.TotalTasks()).
		Str("provider", liveData.ProviderName()).
		Msg("refresh loop started")

	job.Run(ctx)
	ticker := time.NewTicker(cfg.Refresh.Interval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			job.Run(ctx)
		}
	}

	log.Info().Msg("shutting down worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
