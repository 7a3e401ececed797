// Package config loads runtime settings from the environment. A .env file
// in the working directory is read first when present; variables already
// set in the process win over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sakif/blog-api/internal/repository/sqlstore"
	"github.com/sakif/blog-api/internal/service"
)

const minJWTSecretLength = 16

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Loader    LoaderConfig
	GraphQL   GraphQLConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

type AppConfig struct {
	Port            int
	Env             string
	SecureCookies   bool
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// LoaderConfig tunes the per-request batch loaders.
type LoaderConfig struct {
	Wait     time.Duration
	MaxBatch int
}

type GraphQLConfig struct {
	MaxDepth       int
	MaxParallelism int
	Playground     bool
}

// RateLimitConfig applies to the login and register routes only.
type RateLimitConfig struct {
	PerMinute       float64
	Burst           int
	CleanupInterval time.Duration
}

type LogConfig struct {
	Level  string
	Pretty bool
}

// Load reads .env (if any) and the environment. Unparseable values fall
// back to their defaults; call Validate to reject unusable combinations.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}

	env := getEnv("APP_ENV", "development")

	return &Config{
		App: AppConfig{
			Port:            getEnvInt("PORT", 8080),
			Env:             env,
			SecureCookies:   getEnvBool("COOKIE_SECURE", env == "production"),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			DSN:             getEnv("DATABASE_URL", "data/blog.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnectTimeout:  getEnvDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", ""),
			TokenTTL:   getEnvDuration("JWT_EXPIRES_IN", 24*time.Hour),
			BcryptCost: getEnvInt("BCRYPT_COST", 10),
		},
		Loader: LoaderConfig{
			Wait:     getEnvDuration("LOADER_WAIT", 2*time.Millisecond),
			MaxBatch: getEnvInt("LOADER_MAX_BATCH", 100),
		},
		GraphQL: GraphQLConfig{
			MaxDepth:       getEnvInt("GRAPHQL_MAX_DEPTH", 10),
			MaxParallelism: getEnvInt("GRAPHQL_MAX_PARALLELISM", service.MaxListLimit),
			Playground:     getEnvBool("GRAPHQL_PLAYGROUND", env != "production"),
		},
		RateLimit: RateLimitConfig{
			PerMinute:       getEnvFloat("AUTH_RATE_PER_MINUTE", 10),
			Burst:           getEnvInt("AUTH_RATE_BURST", 10),
			CleanupInterval: getEnvDuration("AUTH_RATE_CLEANUP_INTERVAL", 5*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvBool("LOG_PRETTY", env == "development"),
		},
	}, nil
}

// Validate reports the first setting the server cannot start with.
func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("config: PORT %d out of range", c.App.Port)
	}
	if _, err := sqlstore.ParseDialect(c.Database.Driver); err != nil {
		return fmt.Errorf("config: DB_DRIVER: %w", err)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("config: DATABASE_URL is required")
	}
	if len(c.Auth.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("config: JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("config: JWT_EXPIRES_IN must be positive")
	}
	if c.Loader.Wait <= 0 {
		return errors.New("config: LOADER_WAIT must be positive")
	}
	if c.Loader.MaxBatch <= 0 {
		return errors.New("config: LOADER_MAX_BATCH must be positive")
	}
	if c.GraphQL.MaxParallelism < service.MaxListLimit {
		return fmt.Errorf("config: GRAPHQL_MAX_PARALLELISM must be at least %d", service.MaxListLimit)
	}
	if c.RateLimit.PerMinute <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("config: auth rate limit must be positive")
	}
	return nil
}

// IsProduction is true when APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
