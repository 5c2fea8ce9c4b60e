// Package app holds the wiring shared by the TripGuard binaries.
package app

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"

	"github.com/tripguard/tripguard/internal/config"
	"github.com/tripguard/tripguard/internal/livedata"
	"github.com/tripguard/tripguard/internal/livedata/static"
	"github.com/tripguard/tripguard/internal/livedata/upstream"
	"github.com/tripguard/tripguard/internal/provider/resilience"
)

// NewLogger creates the root structured logger for a binary. Unknown
// levels fall back to info.
func NewLogger(w io.Writer, cfg config.AppConfig, service, version string) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.LogLevel)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Str("env", cfg.Env).
		Logger()
}

// NewBootLogger is used before configuration is loaded.
func NewBootLogger(w io.Writer, service string) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Str("service", service).Logger()
}

// NewLiveDataProvider selects the live conditions source. With an upstream
// URL it returns a feed client behind a circuit breaker registered in
// registry. Otherwise it returns the built-in static snapshots.
func NewLiveDataProvider(cfg config.LiveDataConfig, registry *resilience.Registry, log zerolog.Logger) livedata.Provider {
	if cfg.UpstreamURL == "" {
		log.Info().Msg("using static live data snapshots")
		return static.NewDefaultProvider()
	}

	clientCfg := resilience.DefaultClientConfig(upstream.ProviderName)
	if cfg.Timeout > 0 {
		clientCfg.Timeout = cfg.Timeout
	}
	if cfg.MaxRetries >= 0 {
		clientCfg.MaxRetries = uint64(cfg.MaxRetries)
	}
	clientCfg.Registry = registry

	log.Info().
		Str("base_url", cfg.UpstreamURL).
		Dur("timeout", clientCfg.Timeout).
		Uint64("max_retries", clientCfg.MaxRetries).
		Msg("using upstream live data feed")

	return upstream.NewClient(upstream.ClientConfig{
		BaseURL:    cfg.UpstreamURL,
		APIKey:     cfg.APIKey,
		HTTPClient: resilience.NewClient(clientCfg),
		Logger:     log.With().Str("provider", upstream.ProviderName).Logger(),
	})
}

// NewLiveDataService wraps a provider with the configured cache.
func NewLiveDataService(cfg config.LiveDataConfig, provider livedata.Provider, meter metric.Meter, log zerolog.Logger) *livedata.Service {
	return livedata.NewService(livedata.ServiceConfig{
		Provider:        provider,
		Logger:          log.With().Str("component", "livedata").Logger(),
		CacheTTL:        cfg.CacheTTL,
		StaleIfErrorTTL: cfg.StaleIfErrorTTL,
		Meter:           meter,
	})
}
