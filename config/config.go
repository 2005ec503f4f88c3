package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Search   SearchConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        string
	GinMode     string
	FrontendURL string
	Env         string
}

// DatabaseConfig holds database configuration. An empty URL with no host
// set means the in-memory catalog is used instead of Postgres.
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	Seed     bool
}

// RedisConfig holds the bounds cache configuration. Caching is off when URL is empty.
type RedisConfig struct {
	URL       string
	BoundsTTL time.Duration
}

// SearchConfig tunes price searches.
type SearchConfig struct {
	MaxResults    int
	RetryAttempts int
	RetryInitial  time.Duration
}

// Load reads .env if present, then the environment.
func Load() (*Config, error) {
	// .env is optional; real env vars win
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
			Env:         getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", ""),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "tripfare"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Seed:     getEnvAsBool("SEED_DEMO_DATA", true),
		},
		Redis: RedisConfig{
			URL:       getEnv("REDIS_URL", ""),
			BoundsTTL: getEnvAsDuration("BOUNDS_CACHE_TTL", 5*time.Minute),
		},
		Search: SearchConfig{
			MaxResults:    getEnvAsInt("SEARCH_MAX_RESULTS", 20),
			RetryAttempts: getEnvAsInt("SOURCE_RETRY_ATTEMPTS", 3),
			RetryInitial:  getEnvAsDuration("SOURCE_RETRY_INITIAL", 100*time.Millisecond),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("invalid PORT %q: %w", c.Server.Port, err)
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("SEARCH_MAX_RESULTS must be positive, got %d", c.Search.MaxResults)
	}
	if c.Search.RetryAttempts <= 0 {
		return fmt.Errorf("SOURCE_RETRY_ATTEMPTS must be positive, got %d", c.Search.RetryAttempts)
	}
	return nil
}

// UsePostgres reports whether a database is configured.
func (c *DatabaseConfig) UsePostgres() bool {
	return c.URL != "" || c.Host != ""
}

// DSN returns the PostgreSQL connection string. DATABASE_URL wins over the
// individual DB_* variables.
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// IsDevelopment reports whether the app runs in development mode.
func (c *ServerConfig) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
