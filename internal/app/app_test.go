package app_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripguard/tripguard/internal/app"
	"github.com/tripguard/tripguard/internal/config"
	"github.com/tripguard/tripguard/internal/livedata/static"
	"github.com/tripguard/tripguard/internal/livedata/upstream"
	"github.com/tripguard/tripguard/internal/provider/resilience"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{"debug", "debug", true, true},
		{"upper case", "WARN", false, false},
		{"unknown falls back to info", "verbose", false, true},
		{"empty falls back to info", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := app.NewLogger(&buf, config.AppConfig{LogLevel: tt.level, Env: "test"}, "tripguard-api", "1.2.3")

			log.Debug().Msg("debug line")
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug line")))

			buf.Reset()
			log.Info().Msg("info line")
			assert.Equal(t, tt.wantInfo, bytes.Contains(buf.Bytes(), []byte("info line")))
		})
	}
}

func TestNewLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := app.NewLogger(&buf, config.AppConfig{LogLevel: "info", Env: "staging"}, "tripguard-worker", "1.2.3")
	log.Info().Msg("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "tripguard-worker", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.Equal(t, "staging", entry["env"])
	assert.Contains(t, entry, "time")
}

func TestNewBootLogger(t *testing.T) {
	tests := []struct {
		name  string
		write func(log *zerolog.Logger)
		want  string
	}{
		{"error", func(log *zerolog.Logger) { log.Error().Msg("invalid configuration") }, "error"},
		{"info", func(log *zerolog.Logger) { log.Info().Msg("invalid configuration") }, "info"},
		{"debug", func(log *zerolog.Logger) { log.Debug().Msg("invalid configuration") }, "debug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := app.NewBootLogger(&buf, "tripguard-api")
			tt.write(&log)

			var entry map[string]interface{}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.want, entry["level"])
			assert.Equal(t, "tripguard-api", entry["service"])
			assert.Equal(t, "invalid configuration", entry["message"])
			assert.Contains(t, entry, "time")
		})
	}
}

func TestNewLiveDataProvider_Static(t *testing.T) {
	registry := resilience.NewRegistry()
	provider := app.NewLiveDataProvider(config.LiveDataConfig{}, registry, zerolog.Nop())

	assert.Equal(t, static.ProviderName, provider.Name())
	assert.Zero(t, registry.Len())
}

func TestNewLiveDataProvider_Upstream(t *testing.T) {
	registry := resilience.NewRegistry()
	provider := app.NewLiveDataProvider(config.LiveDataConfig{
		UpstreamURL: "https://feed.example.in",
		Timeout:     3 * time.Second,
		MaxRetries:  1,
	}, registry, zerolog.Nop())

	assert.Equal(t, upstream.ProviderName, provider.Name())

	health, ok := registry.Health(upstream.ProviderName)
	require.True(t, ok, "upstream feed is registered for health reporting")
	assert.Equal(t, "healthy", health.Status())
}

func TestNewLiveDataService(t *testing.T) {
	provider := static.NewDefaultProvider()
	service := app.NewLiveDataService(config.LiveDataConfig{CacheTTL: time.Minute}, provider, nil, zerolog.Nop())

	assert.Equal(t, static.ProviderName, service.ProviderName())
	assert.Zero(t, service.CacheStats().Entries)
}
