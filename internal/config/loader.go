package config

import (
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from the process environment, applies defaults
// and validates the result.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom is Load with a custom variable lookup.
func LoadFrom(getenv func(string) string) (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), getenv); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// loadStruct populates struct fields from env tags, recursing into nested
// structs.
func loadStruct(v reflect.Value, getenv func(string) string) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal, getenv); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		value := getenv(envName)
		if alt := field.Tag.Get("envAlt"); value == "" && alt != "" {
			value = getenv(alt)
		}

		if value == "" {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = field.Tag.Get("default")
		}
		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// setField parses value into field according to its kind.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == durationType {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(i)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		var result []string
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				result = append(result, p)
			}
		}
		field.Set(reflect.ValueOf(result))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	// Data
	if strings.TrimSpace(c.Data.File) == "" {
		errs = append(errs, "DATA_FILE is required")
	}
	switch strings.ToLower(c.Data.Format) {
	case "", "auto", "xlsx", "csv":
	default:
		errs = append(errs, fmt.Sprintf("DATA_FORMAT (%q) must be one of: auto, xlsx, csv", c.Data.Format))
	}

	// Sink
	if c.Sink.Timeout <= 0 {
		errs = append(errs, "SINK_TIMEOUT must be positive")
	}
	if c.Sink.MaxInFlight <= 0 {
		errs = append(errs, "SINK_MAX_INFLIGHT must be positive")
	}
	switch c.Sink.Kind {
	case SinkMemory, SinkNone:
	case SinkPostgres:
		errs = append(errs, c.Database.validate()...)
	case SinkRedis:
		errs = append(errs, c.Redis.validate()...)
	case SinkRealtime:
		errs = append(errs, c.Realtime.validate()...)
	default:
		errs = append(errs, fmt.Sprintf("SINK_KIND (%q) must be one of: memory, postgres, redis, rtdb, none", c.Sink.Kind))
	}

	// Rate limit
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Rate.Enabled && c.Rate.Burst <= 0 {
		errs = append(errs, "RATE_LIMIT_BURST must be positive when rate limiting is enabled")
	}

	// Security
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	// Logging
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	// Metrics
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = append(errs, "STATSD_ADDR is required when METRICS_ENABLED is true")
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func (c *DatabaseConfig) validate() []string {
	var errs []string
	if c.URL == "" {
		errs = append(errs, "DATABASE_URL is required when SINK_KIND is postgres")
	}
	if c.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}
	if c.MaxConns < c.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", c.MaxConns, c.MinConns))
	}
	return errs
}

func (c *RedisConfig) validate() []string {
	var errs []string
	if c.Addr == "" {
		errs = append(errs, "REDIS_ADDR is required when SINK_KIND is redis")
	}
	if c.Stream == "" {
		errs = append(errs, "REDIS_STREAM must not be empty")
	}
	if c.MaxLen < 0 {
		errs = append(errs, "REDIS_MAX_LEN must be non-negative")
	}
	return errs
}

func (c *RealtimeConfig) validate() []string {
	var errs []string
	if c.URL == "" {
		errs = append(errs, "RTDB_URL is required when SINK_KIND is rtdb")
	} else if u, err := url.Parse(c.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("RTDB_URL (%q) must be an absolute URL", c.URL))
	}
	if strings.Trim(c.Path, "/") == "" {
		errs = append(errs, "RTDB_PATH must not be empty")
	}
	return errs
}

// String returns a representation safe for logs; secrets are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	fmt.Fprintf(&b, "Data: {File: %q, Format: %q, Sheet: %q, SkipHeader: %v}, ",
		c.Data.File, c.Data.Format, c.Data.Sheet, c.Data.SkipHeader)
	fmt.Fprintf(&b, "Sink: {Kind: %q, Timeout: %s, MaxInFlight: %d}, ",
		c.Sink.Kind, c.Sink.Timeout, c.Sink.MaxInFlight)
	switch c.Sink.Kind {
	case SinkPostgres:
		fmt.Fprintf(&b, "Database: {URL: %s, MaxConns: %d}, ", mask(c.Database.URL), c.Database.MaxConns)
	case SinkRedis:
		fmt.Fprintf(&b, "Redis: {Addr: %q, Password: %s, Stream: %q}, ",
			c.Redis.Addr, mask(c.Redis.Password), c.Redis.Stream)
	case SinkRealtime:
		fmt.Fprintf(&b, "Realtime: {URL: %q, Path: %q, Auth: %s}, ",
			c.Realtime.URL, c.Realtime.Path, mask(c.Realtime.Auth))
	}
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RequestsPerMinute: %d}, ", c.Rate.Enabled, c.Rate.RequestsPerMinute)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q, Sentry: %v}",
		c.Logging.Level, c.Logging.Format, c.Logging.SentryDSN != "")
	b.WriteString("}")
	return b.String()
}

func mask(s string) string {
	if s == "" {
		return "[EMPTY]"
	}
	return "[MASKED]"
}
