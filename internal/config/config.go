// Package config loads service configuration from the environment and an
// optional YAML file.
//
// Keys are dotted ("livedata.cache_ttl") and map to upper-case environment
// variables with underscores (LIVEDATA_CACHE_TTL). Environment variables
// take precedence over the file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tripguard/tripguard/internal/database"
)

// Profile store backends.
const (
	ProfileStoreMemory   = "memory"
	ProfileStorePostgres = "postgres"
)

// FileEnvVar names the variable holding an optional config file path.
const FileEnvVar = "CONFIG_FILE"

// Config is the full service configuration.
type Config struct {
	App      AppConfig
	OTel     OTelConfig
	Database database.Config
	LiveData LiveDataConfig
	Refresh  RefreshConfig
	PubSub   PubSubConfig

	// ProfileStore is ProfileStoreMemory or ProfileStorePostgres.
	ProfileStore string
	RequireTLS   bool
}

// AppConfig holds process-level settings.
type AppConfig struct {
	Port     string
	Env      string
	LogLevel string
}

// OTelConfig holds telemetry settings.
type OTelConfig struct {
	Enabled     bool
	Endpoint    string
	SampleRatio float64
}

// LiveDataConfig selects and tunes the live conditions feed. An empty
// UpstreamURL selects the built-in static snapshots.
type LiveDataConfig struct {
	UpstreamURL     string
	APIKey          string
	CacheTTL        time.Duration
	StaleIfErrorTTL time.Duration
	Timeout         time.Duration
	MaxRetries      int
}

// RefreshConfig tunes the cache warming worker.
type RefreshConfig struct {
	Interval    time.Duration
	Concurrency int
	Timeout     time.Duration
	HorizonDays int
	HealthPort  string
}

// PubSubConfig enables the Pub/Sub job receiver when Subscription is set.
type PubSubConfig struct {
	ProjectID    string
	Subscription string
}

// bindings maps config keys to the environment variables that set them
// when the two differ from the default replacement.
var bindings = map[string]string{
	"otel.endpoint":       "OTEL_EXPORTER_OTLP_ENDPOINT",
	"pubsub.project_id":   "GCP_PROJECT_ID",
	"pubsub.subscription": "PUBSUB_SUBSCRIPTION",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.endpoint", "localhost:4317")
	v.SetDefault("otel.sample_ratio", 1.0)

	v.SetDefault("profile_store", ProfileStoreMemory)
	v.SetDefault("require_tls", false)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "tripguard")
	v.SetDefault("db.password", "localdev")
	v.SetDefault("db.name", "tripguard")
	v.SetDefault("db.ssl_mode", "disable")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 2)
	v.SetDefault("db.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("db.connect_timeout", 10*time.Second)

	v.SetDefault("livedata.upstream_url", "")
	v.SetDefault("livedata.api_key", "")
	v.SetDefault("livedata.cache_ttl", 15*time.Minute)
	v.SetDefault("livedata.stale_if_error_ttl", 2*time.Hour)
	v.SetDefault("livedata.timeout", 8*time.Second)
	v.SetDefault("livedata.max_retries", 2)

	v.SetDefault("refresh.interval", 10*time.Minute)
	v.SetDefault("refresh.concurrency", 3)
	v.SetDefault("refresh.timeout", 30*time.Second)
	v.SetDefault("refresh.horizon_days", 2)
	v.SetDefault("refresh.health_port", "8081")

	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.subscription", "")
}

// Load reads configuration from the environment, and from the YAML file
// named by CONFIG_FILE when set.
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if file := v.GetString(FileEnvVar); file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Port:     v.GetString("app.port"),
			Env:      v.GetString("app.env"),
			LogLevel: v.GetString("app.log_level"),
		},
		OTel: OTelConfig{
			Enabled:     v.GetBool("otel.enabled"),
			Endpoint:    v.GetString("otel.endpoint"),
			SampleRatio: v.GetFloat64("otel.sample_ratio"),
		},
		Database: database.Config{
			Host:            v.GetString("db.host"),
			Port:            v.GetInt("db.port"),
			User:            v.GetString("db.user"),
			Password:        v.GetString("db.password"),
			Database:        v.GetString("db.name"),
			SSLMode:         v.GetString("db.ssl_mode"),
			MaxOpenConns:    v.GetInt("db.max_open_conns"),
			MaxIdleConns:    v.GetInt("db.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("db.conn_max_lifetime"),
			ConnectTimeout:  v.GetDuration("db.connect_timeout"),
		},
		LiveData: LiveDataConfig{
			UpstreamURL:     strings.TrimRight(v.GetString("livedata.upstream_url"), "/"),
			APIKey:          v.GetString("livedata.api_key"),
			CacheTTL:        v.GetDuration("livedata.cache_ttl"),
			StaleIfErrorTTL: v.GetDuration("livedata.stale_if_error_ttl"),
			Timeout:         v.GetDuration("livedata.timeout"),
			MaxRetries:      v.GetInt("livedata.max_retries"),
		},
		Refresh: RefreshConfig{
			Interval:    v.GetDuration("refresh.interval"),
			Concurrency: v.GetInt("refresh.concurrency"),
			Timeout:     v.GetDuration("refresh.timeout"),
			HorizonDays: v.GetInt("refresh.horizon_days"),
			HealthPort:  v.GetString("refresh.health_port"),
		},
		PubSub: PubSubConfig{
			ProjectID:    v.GetString("pubsub.project_id"),
			Subscription: v.GetString("pubsub.subscription"),
		},
		ProfileStore: strings.ToLower(v.GetString("profile_store")),
		RequireTLS:   v.GetBool("require_tls"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.ProfileStore != ProfileStoreMemory && c.ProfileStore != ProfileStorePostgres {
		errs = append(errs, fmt.Errorf("PROFILE_STORE must be %q or %q, got %q",
			ProfileStoreMemory, ProfileStorePostgres, c.ProfileStore))
	}
	if c.OTel.SampleRatio < 0 || c.OTel.SampleRatio > 1 {
		errs = append(errs, errors.New("OTEL_SAMPLE_RATIO must be between 0 and 1"))
	}
	if c.LiveData.CacheTTL <= 0 {
		errs = append(errs, errors.New("LIVEDATA_CACHE_TTL must be positive"))
	}
	if c.LiveData.MaxRetries < 0 {
		errs = append(errs, errors.New("LIVEDATA_MAX_RETRIES must be >= 0"))
	}
	if c.Refresh.Interval <= 0 {
		errs = append(errs, errors.New("REFRESH_INTERVAL must be positive"))
	}
	if c.Refresh.Concurrency < 1 {
		errs = append(errs, errors.New("REFRESH_CONCURRENCY must be >= 1"))
	}
	if c.Refresh.HorizonDays < 0 {
		errs = append(errs, errors.New("REFRESH_HORIZON_DAYS must be >= 0"))
	}
	if c.Database.MaxOpenConns < 1 || c.Database.MaxIdleConns < 0 || c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		errs = append(errs, errors.New("DB_MAX_IDLE_CONNS must be between 0 and DB_MAX_OPEN_CONNS"))
	}
	if c.PubSub.Subscription != "" && c.PubSub.ProjectID == "" {
		errs = append(errs, errors.New("GCP_PROJECT_ID is required when PUBSUB_SUBSCRIPTION is set"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
