// Package config loads the service configuration from environment variables,
// applies defaults and validates everything on startup.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Sink     SinkConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Realtime RealtimeConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including draining the sink (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 15s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"15s"`
}

// DataConfig describes the range table file.
type DataConfig struct {
	// File is the path of the bundled workbook (default: HE860.xlsx)
	File string `env:"DATA_FILE" default:"HE860.xlsx"`

	// Format forces the decoder: auto, xlsx or csv (default: auto)
	Format string `env:"DATA_FORMAT" default:"auto"`

	// Sheet selects a workbook sheet; empty uses the first one
	Sheet string `env:"DATA_SHEET"`

	// SkipHeader drops the first non-empty row (default: false)
	SkipHeader bool `env:"DATA_SKIP_HEADER" default:"false"`
}

// Sink kinds.
const (
	SinkMemory   = "memory"
	SinkPostgres = "postgres"
	SinkRedis    = "redis"
	SinkRealtime = "rtdb"
	SinkNone     = "none"
)

// SinkConfig selects where selection events are recorded.
type SinkConfig struct {
	// Kind is one of memory, postgres, redis, rtdb, none (default: memory)
	Kind string `env:"SINK_KIND" default:"memory"`

	// Timeout bounds a single event write (default: 5s)
	Timeout time.Duration `env:"SINK_TIMEOUT" default:"5s"`

	// MaxInFlight is the number of concurrent writes before events are dropped (default: 32)
	MaxInFlight int `env:"SINK_MAX_INFLIGHT" default:"32"`
}

// DatabaseConfig holds PostgreSQL settings for the postgres sink.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"8"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// RedisConfig holds settings for the redis stream sink.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" default:"0"`

	// Stream is the stream key events are appended to (default: selections)
	Stream string `env:"REDIS_STREAM" default:"selections"`

	// MaxLen approximately caps the stream length (default: 100000)
	MaxLen int64 `env:"REDIS_MAX_LEN" default:"100000"`
}

// RealtimeConfig holds settings for the realtime database sink.
type RealtimeConfig struct {
	// URL is the database root, e.g. https://project.firebaseio.com
	URL string `env:"RTDB_URL"`

	// Path is the list events are pushed to (default: data)
	Path string `env:"RTDB_PATH" default:"data"`

	// Auth is an optional access token sent as the auth query parameter
	Auth string `env:"RTDB_AUTH"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the sustained rate per IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// Burst is the token bucket size per IP (default: 20)
	Burst int `env:"RATE_LIMIT_BURST" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey protects the selection endpoint (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`

	// SentryDSN enables error reporting to Sentry when set
	SentryDSN string `env:"SENTRY_DSN"`

	// Environment tags Sentry events (default: production)
	Environment string `env:"APP_ENV" default:"production"`
}

// MetricsConfig holds statsd settings.
type MetricsConfig struct {
	Enabled   bool   `env:"METRICS_ENABLED" default:"false"`
	Addr      string `env:"STATSD_ADDR" default:"127.0.0.1:8125"`
	Namespace string `env:"METRICS_NAMESPACE" default:"ranger."`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
