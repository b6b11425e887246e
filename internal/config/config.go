package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "GIGS_"
	configFileEnv = "GIGS_CONFIG"

	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig       `koanf:"app"`
	Postgres  PostgresConfig  `koanf:"postgres"`
	Redis     RedisConfig     `koanf:"redis"`
	Logger    LoggerConfig    `koanf:"logger"`
	Auth      AuthConfig      `koanf:"auth"`
	Store     StoreConfig     `koanf:"store"`
	Feed      FeedConfig      `koanf:"feed"`
	Reconcile ReconcileConfig `koanf:"reconcile"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `koanf:"name"`
	Env                   string `koanf:"env"`
	Host                  string `koanf:"host"`
	Port                  string `koanf:"port"`
	Version               string `koanf:"version"`
	RequestTimeoutSeconds int    `koanf:"request_timeout_seconds"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string `koanf:"dsn"`
	MaxConns       int32  `koanf:"max_conns"`
	MinConns       int32  `koanf:"min_conns"`
	RunMigrations  bool   `koanf:"run_migrations"`
	MigrationsDir  string `koanf:"migrations_dir"`
	ConnMaxIdleSec int32  `koanf:"conn_max_idle_seconds"`
	ConnMaxLifeSec int32  `koanf:"conn_max_life_seconds"`
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `koanf:"level"`
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string `koanf:"jwt_secret"`
	AccessTokenTTLMinutes int    `koanf:"access_token_ttl_minutes"`
	BcryptCost            int    `koanf:"bcrypt_cost"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string `koanf:"driver"`
}

// FeedConfig configures gig change fan-out.
type FeedConfig struct {
	RedisChannel string `koanf:"redis_channel"`
}

// ReconcileConfig configures the applicant-set reconciliation job.
type ReconcileConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Schedule string `koanf:"schedule"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// New returns the built-in defaults.
func New() *Config {
	return &Config{
		App: AppConfig{
			Name:                  "gig-service",
			Env:                   "development",
			Host:                  "0.0.0.0",
			Port:                  "8080",
			Version:               "dev",
			RequestTimeoutSeconds: 30,
		},
		Postgres: PostgresConfig{
			MaxConns:       10,
			MinConns:       2,
			RunMigrations:  true,
			MigrationsDir:  "migrations",
			ConnMaxIdleSec: 30,
			ConnMaxLifeSec: 300,
		},
		Logger: LoggerConfig{Level: "info"},
		Auth: AuthConfig{
			JWTSecret:             "dev-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            12,
		},
		Store:     StoreConfig{Driver: StoreDriverPostgres},
		Feed:      FeedConfig{RedisChannel: "gigs:changed"},
		Reconcile: ReconcileConfig{Enabled: true, Schedule: "@every 10m"},
		Metrics:   MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

// Load builds a Config by layering, lowest precedence first: defaults, a
// .env file, an optional YAML file named by GIGS_CONFIG, and GIGS_* env vars.
// GIGS_POSTGRES_DSN maps to postgres.dsn.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	if path := os.Getenv(configFileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.Replace(s, "_", ".", 1)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.App.Host == "" && c.App.Port == "" {
		return errors.New("app.host and app.port must not both be empty")
	}
	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required when store.driver is postgres")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret must not be empty")
	}
	if c.Auth.AccessTokenTTLMinutes <= 0 {
		return errors.New("auth.access_token_ttl_minutes must be positive")
	}
	if c.Reconcile.Enabled && c.Reconcile.Schedule == "" {
		return errors.New("reconcile.schedule is required when reconcile is enabled")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New("metrics.path must start with /")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// RedisEnabled reports whether a Redis address was configured.
func (r RedisConfig) RedisEnabled() bool {
	return r.Addr != ""
}
