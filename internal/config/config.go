// Package config handles application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Rate limiter backends.
const (
	RateBackendMemory = "memory"
	RateBackendRedis  = "redis"
)

// Bounds enforced by Validate on NANOID_SIZE.
const (
	minNanoIDSize = 1
	maxNanoIDSize = 256
)

// Config holds all configuration for the application.
type Config struct {
	App       AppConfig
	Server    ServerConfig
	IDGen     IDGenConfig
	Rate      RateLimitConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Analytics AnalyticsConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Env      string
	LogLevel string
}

// IsDevelopment returns true if the app is running in development mode.
func (a AppConfig) IsDevelopment() bool {
	return a.Env == "development" || a.Env == "dev"
}

// IsProduction returns true if the app is running in production mode.
func (a AppConfig) IsProduction() bool {
	return a.Env == "production" || a.Env == "prod"
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Address returns the server address in host:port format.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IDGenConfig controls the identifier engine.
// An empty NanoIDAlphabet selects the standard 64-symbol alphabet.
type IDGenConfig struct {
	NanoIDSize     int
	NanoIDAlphabet string
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	Enabled      bool
	Requests     int
	Window       time.Duration
	Backend      string
	TrustProxy   bool
	APIKeyHeader string
	APIKeys      []string
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// Address returns the Redis address in host:port format.
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// AnalyticsConfig controls the generation statistics pipeline.
// CacheTTL caches persisted totals in Redis; zero disables the cache.
type AnalyticsConfig struct {
	Enabled       bool
	FlushInterval time.Duration
	BatchSize     int
	CacheTTL      time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// App config
	cfg.App.Env = getEnvOrDefault("APP_ENV", "development")
	cfg.App.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Server config
	cfg.Server.Host = getEnvOrDefault("SERVER_HOST", "0.0.0.0")
	if cfg.Server.Port, err = getEnvAsInt("SERVER_PORT", 8080); err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	if cfg.Server.ReadTimeout, err = getEnvAsDuration("SERVER_READ_TIMEOUT", 5*time.Second); err != nil {
		return nil, fmt.Errorf("invalid SERVER_READ_TIMEOUT: %w", err)
	}
	if cfg.Server.WriteTimeout, err = getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second); err != nil {
		return nil, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT: %w", err)
	}
	if cfg.Server.ShutdownTimeout, err = getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second); err != nil {
		return nil, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT: %w", err)
	}

	// Identifier engine
	if cfg.IDGen.NanoIDSize, err = getEnvAsInt("NANOID_SIZE", 21); err != nil {
		return nil, fmt.Errorf("invalid NANOID_SIZE: %w", err)
	}
	cfg.IDGen.NanoIDAlphabet = os.Getenv("NANOID_ALPHABET")

	// Rate limiting
	if cfg.Rate.Enabled, err = getEnvAsBool("RATE_LIMIT_ENABLED", true); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_ENABLED: %w", err)
	}
	if cfg.Rate.Requests, err = getEnvAsInt("RATE_LIMIT_REQUESTS", 100); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REQUESTS: %w", err)
	}
	if cfg.Rate.Window, err = getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW: %w", err)
	}
	cfg.Rate.Backend = strings.ToLower(getEnvOrDefault("RATE_LIMIT_BACKEND", RateBackendMemory))
	if cfg.Rate.TrustProxy, err = getEnvAsBool("TRUST_PROXY", false); err != nil {
		return nil, fmt.Errorf("invalid TRUST_PROXY: %w", err)
	}
	cfg.Rate.APIKeyHeader = os.Getenv("API_KEY_HEADER")
	cfg.Rate.APIKeys = getEnvAsList("API_KEYS")

	// Database config
	cfg.Database.Host = getEnvOrDefault("DB_HOST", "localhost")
	if cfg.Database.Port, err = getEnvAsInt("DB_PORT", 5432); err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Database.User = getEnvOrDefault("DB_USER", "idforge")
	cfg.Database.Password = getEnvOrDefault("DB_PASSWORD", "")
	cfg.Database.DBName = getEnvOrDefault("DB_NAME", "idforge")
	cfg.Database.SSLMode = getEnvOrDefault("DB_SSLMODE", "disable")
	if cfg.Database.MaxOpenConns, err = getEnvAsInt("DB_MAX_OPEN_CONNS", 10); err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}
	if cfg.Database.MaxIdleConns, err = getEnvAsInt("DB_MAX_IDLE_CONNS", 2); err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %w", err)
	}
	if cfg.Database.ConnMaxLifetime, err = getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute); err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}

	// Redis config
	cfg.Redis.Host = getEnvOrDefault("REDIS_HOST", "localhost")
	if cfg.Redis.Port, err = getEnvAsInt("REDIS_PORT", 6379); err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	cfg.Redis.Password = getEnvOrDefault("REDIS_PASSWORD", "")
	if cfg.Redis.DB, err = getEnvAsInt("REDIS_DB", 0); err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	if cfg.Redis.PoolSize, err = getEnvAsInt("REDIS_POOL_SIZE", 10); err != nil {
		return nil, fmt.Errorf("invalid REDIS_POOL_SIZE: %w", err)
	}

	// Generation statistics
	if cfg.Analytics.Enabled, err = getEnvAsBool("ANALYTICS_ENABLED", false); err != nil {
		return nil, fmt.Errorf("invalid ANALYTICS_ENABLED: %w", err)
	}
	if cfg.Analytics.FlushInterval, err = getEnvAsDuration("ANALYTICS_FLUSH_INTERVAL", 10*time.Second); err != nil {
		return nil, fmt.Errorf("invalid ANALYTICS_FLUSH_INTERVAL: %w", err)
	}
	if cfg.Analytics.BatchSize, err = getEnvAsInt("ANALYTICS_BATCH_SIZE", 100); err != nil {
		return nil, fmt.Errorf("invalid ANALYTICS_BATCH_SIZE: %w", err)
	}
	if cfg.Analytics.CacheTTL, err = getEnvAsDuration("STATS_CACHE_TTL", 0); err != nil {
		return nil, fmt.Errorf("invalid STATS_CACHE_TTL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that parsing alone cannot catch.
func (c *Config) Validate() error {
	var errs []error

	if c.IDGen.NanoIDSize < minNanoIDSize || c.IDGen.NanoIDSize > maxNanoIDSize {
		errs = append(errs, fmt.Errorf("NANOID_SIZE must be between %d and %d, got %d",
			minNanoIDSize, maxNanoIDSize, c.IDGen.NanoIDSize))
	}
	if c.Rate.Enabled {
		switch c.Rate.Backend {
		case RateBackendMemory, RateBackendRedis:
		default:
			errs = append(errs, fmt.Errorf("RATE_LIMIT_BACKEND must be %q or %q, got %q",
				RateBackendMemory, RateBackendRedis, c.Rate.Backend))
		}
		if c.Rate.Requests <= 0 {
			errs = append(errs, errors.New("RATE_LIMIT_REQUESTS must be positive"))
		}
		if c.Rate.Window <= 0 {
			errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
		}
		if c.Rate.APIKeyHeader != "" && len(c.Rate.APIKeys) == 0 {
			errs = append(errs, errors.New("API_KEYS must list at least one key when API_KEY_HEADER is set"))
		}
	}
	if c.Analytics.Enabled {
		if c.Analytics.FlushInterval <= 0 {
			errs = append(errs, errors.New("ANALYTICS_FLUSH_INTERVAL must be positive"))
		}
		if c.Analytics.BatchSize <= 0 {
			errs = append(errs, errors.New("ANALYTICS_BATCH_SIZE must be positive"))
		}
	}
	if c.Analytics.CacheTTL < 0 {
		errs = append(errs, errors.New("STATS_CACHE_TTL must not be negative"))
	}

	return errors.Join(errs...)
}

// DatabaseEnabled returns true if database configuration is provided.
func (c *Config) DatabaseEnabled() bool {
	return c.Database.Host != "" && c.Database.Password != ""
}

// RedisEnabled returns true if Redis configuration is provided.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

// getEnvAsList splits a comma-separated variable, dropping empty items.
func getEnvAsList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt returns the environment variable as an integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(valueStr)
}

// getEnvAsBool accepts the forms strconv.ParseBool does.
func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	return strconv.ParseBool(valueStr)
}

// getEnvAsDuration returns the environment variable as a duration.
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	return time.ParseDuration(valueStr)
}
