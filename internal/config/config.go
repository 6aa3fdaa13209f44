// Package config loads the process configuration exactly once at startup
// from environment variables (optionally pre-populated from a local .env
// file in development) into an immutable Config value.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the fully-resolved, immutable process configuration. Nothing
// in the request path re-reads the environment; components hold a *Config
// handed to them at construction time.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Ingest   IngestConfig
	Logging  LoggingConfig
}

// DatabaseConfig configures the Postgres connection pool backing the
// store (C1).
type DatabaseConfig struct {
	URL         string
	MaxOpenConn int
	MaxIdleConn int
	ConnMaxLife time.Duration
}

// ServerConfig configures the HTTP listener (C7).
type ServerConfig struct {
	BindAddr        string
	ShutdownTimeout time.Duration
}

// AuthConfig configures credential verification (C6) and the default
// project id used when ingest payloads omit one.
type AuthConfig struct {
	BearerToken      string
	PublicKey        string
	SecretKey        string
	DefaultProjectID string
	RateLimitQPS     float64
	RateLimitBurst   int
}

// IngestConfig configures the bounded write-side queues (C2).
type IngestConfig struct {
	TraceQueueCapacity   int
	MetricQueueCapacity  int
	MicroBatchWindow     time.Duration
	MicroBatchMaxRecords int
	DrainTimeout         time.Duration
}

// LoggingConfig configures pkg/logging.
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment (and, if present, a local
// .env file) and validates required fields. Called exactly once at process
// startup.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	mustBindEnv(v, "database.url", "DATABASE_URL")
	mustBindEnv(v, "auth.bearer_token", "API_BEARER_TOKEN")
	mustBindEnv(v, "server.bind_addr", "BIND_ADDR")
	mustBindEnv(v, "auth.default_project_id", "DEFAULT_PROJECT_ID")
	mustBindEnv(v, "auth.public_key", "XTRACE_PUBLIC_KEY", "LANGFUSE_PUBLIC_KEY")
	mustBindEnv(v, "auth.secret_key", "XTRACE_SECRET_KEY", "LANGFUSE_SECRET_KEY")
	mustBindEnv(v, "auth.rate_limit_qps", "RATE_LIMIT_QPS")
	mustBindEnv(v, "auth.rate_limit_burst", "RATE_LIMIT_BURST")
	mustBindEnv(v, "logging.level", "LOG_LEVEL")
	mustBindEnv(v, "logging.format", "LOG_FORMAT")

	v.SetDefault("server.bind_addr", "127.0.0.1:8742")
	v.SetDefault("auth.default_project_id", "default")
	v.SetDefault("auth.rate_limit_qps", 20)
	v.SetDefault("auth.rate_limit_burst", 40)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "auto")

	cfg := &Config{
		Database: DatabaseConfig{
			URL:         v.GetString("database.url"),
			MaxOpenConn: 20,
			MaxIdleConn: 5,
			ConnMaxLife: time.Hour,
		},
		Server: ServerConfig{
			BindAddr:        v.GetString("server.bind_addr"),
			ShutdownTimeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			BearerToken:      v.GetString("auth.bearer_token"),
			PublicKey:        v.GetString("auth.public_key"),
			SecretKey:        v.GetString("auth.secret_key"),
			DefaultProjectID: v.GetString("auth.default_project_id"),
			RateLimitQPS:     v.GetFloat64("auth.rate_limit_qps"),
			RateLimitBurst:   v.GetInt("auth.rate_limit_burst"),
		},
		Ingest: IngestConfig{
			TraceQueueCapacity:   1000,
			MetricQueueCapacity:  5000,
			MicroBatchWindow:     50 * time.Millisecond,
			MicroBatchMaxRecords: 200,
			DrainTimeout:         10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("config: DATABASE_URL is required")
	}
	if c.Auth.BearerToken == "" {
		return fmt.Errorf("config: API_BEARER_TOKEN is required")
	}
	if (c.Auth.PublicKey == "") != (c.Auth.SecretKey == "") {
		return fmt.Errorf("config: XTRACE_PUBLIC_KEY and XTRACE_SECRET_KEY must both be set or both be empty")
	}
	return nil
}

// BasicAuthEnabled reports whether a public/secret key pair is configured,
// enabling Basic auth as an alternative to the bearer token (spec.md §4.6).
func (c *AuthConfig) BasicAuthEnabled() bool {
	return c.PublicKey != "" && c.SecretKey != ""
}

func mustBindEnv(v *viper.Viper, key string, envNames ...string) {
	args := append([]string{key}, envNames...)
	if err := v.BindEnv(args...); err != nil {
		panic(fmt.Sprintf("config: failed to bind %s: %v", key, err))
	}
}
