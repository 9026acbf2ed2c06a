package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// App holds HTTP server settings.
type App struct {
	Port string `mapstructure:"APP_PORT"`
	Env  string `mapstructure:"APP_ENV"`
}

// Log holds logger settings.
type Log struct {
	Level      string `mapstructure:"LOG_LEVEL"`
	JSON       bool   `mapstructure:"LOG_JSON"`
	File       string `mapstructure:"LOG_FILE"` // empty disables the rotated file sink
	MaxSizeMB  int    `mapstructure:"LOG_MAX_SIZE_MB"`
	MaxBackups int    `mapstructure:"LOG_MAX_BACKUPS"`
	MaxAgeDays int    `mapstructure:"LOG_MAX_AGE_DAYS"`
}

// DB holds database settings.
type DB struct {
	Driver      string `mapstructure:"DB_DRIVER"`
	DSN         string `mapstructure:"DB_DSN"`
	AutoMigrate bool   `mapstructure:"DB_AUTO_MIGRATE"`
	Seed        bool   `mapstructure:"DB_SEED"`
	LogLevel    string `mapstructure:"DB_LOG_LEVEL"`
}

// Auth holds credential and token settings.
type Auth struct {
	JWTSecret   string        `mapstructure:"JWT_SECRET"`
	TokenTTL    time.Duration `mapstructure:"JWT_TTL"`
	BcryptCost  int           `mapstructure:"BCRYPT_COST"`
	DefaultRole string        `mapstructure:"AUTH_DEFAULT_ROLE"`
	AdminRole   string        `mapstructure:"AUTH_ADMIN_ROLE"`
}

// Redis holds cache settings. An empty Addr disables the cache.
type Redis struct {
	Addr             string        `mapstructure:"REDIS_ADDR"`
	Password         string        `mapstructure:"REDIS_PASSWORD"`
	DB               int           `mapstructure:"REDIS_DB"`
	CategoryCacheTTL time.Duration `mapstructure:"CATEGORY_CACHE_TTL"`
}

// RabbitMQ holds event publishing settings. An empty URL disables events.
type RabbitMQ struct {
	URL   string `mapstructure:"RABBITMQ_URL"`
	Queue string `mapstructure:"RABBITMQ_QUEUE"`
}

// Catalog holds listing defaults.
type Catalog struct {
	DefaultPerPage int `mapstructure:"CATALOG_DEFAULT_PER_PAGE"`
	MaxPerPage     int `mapstructure:"CATALOG_MAX_PER_PAGE"`
}

// RateLimit holds the per-IP limiter applied to account endpoints.
type RateLimit struct {
	RPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	Burst int     `mapstructure:"RATE_LIMIT_BURST"`
}

// Sentry holds error tracking settings.
type Sentry struct {
	DSN string `mapstructure:"SENTRY_DSN"`
}

// Config is built once at startup and passed by pointer; it is never mutated afterwards.
type Config struct {
	App       App       `mapstructure:",squash"`
	Log       Log       `mapstructure:",squash"`
	DB        DB        `mapstructure:",squash"`
	Auth      Auth      `mapstructure:",squash"`
	Redis     Redis     `mapstructure:",squash"`
	RabbitMQ  RabbitMQ  `mapstructure:",squash"`
	Catalog   Catalog   `mapstructure:",squash"`
	RateLimit RateLimit `mapstructure:",squash"`
	Sentry    Sentry    `mapstructure:",squash"`
}

var defaults = map[string]interface{}{
	"APP_PORT":                 ":8080",
	"APP_ENV":                  "development",
	"LOG_LEVEL":                "info",
	"LOG_JSON":                 false,
	"LOG_FILE":                 "",
	"LOG_MAX_SIZE_MB":          100,
	"LOG_MAX_BACKUPS":          7,
	"LOG_MAX_AGE_DAYS":         30,
	"DB_DRIVER":                "sqlite",
	"DB_DSN":                   "file:storefront.db?cache=shared",
	"DB_AUTO_MIGRATE":          true,
	"DB_SEED":                  false,
	"DB_LOG_LEVEL":             "warn",
	"JWT_SECRET":               "",
	"JWT_TTL":                  "24h",
	"BCRYPT_COST":              10,
	"AUTH_DEFAULT_ROLE":        "customer",
	"AUTH_ADMIN_ROLE":          "admin",
	"REDIS_ADDR":               "",
	"REDIS_PASSWORD":           "",
	"REDIS_DB":                 0,
	"CATEGORY_CACHE_TTL":       "10m",
	"RABBITMQ_URL":             "",
	"RABBITMQ_QUEUE":           "catalog_events",
	"CATALOG_DEFAULT_PER_PAGE": 10,
	"CATALOG_MAX_PER_PAGE":     100,
	"RATE_LIMIT_RPS":           5,
	"RATE_LIMIT_BURST":         10,
	"SENTRY_DSN":               "",
}

// Load reads configuration from an optional .env file, an optional config file named by
// CONFIG_PATH and the environment, in increasing order of precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return FromViper(v)
}

// FromViper decodes an already populated viper instance. Keys that have no value in v fall
// back to the package defaults.
func FromViper(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		if !v.IsSet(key) {
			v.SetDefault(key, value)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the process cannot start without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Catalog.DefaultPerPage < 1 {
		return fmt.Errorf("CATALOG_DEFAULT_PER_PAGE must be at least 1")
	}
	if c.Catalog.MaxPerPage < c.Catalog.DefaultPerPage {
		return fmt.Errorf("CATALOG_MAX_PER_PAGE must not be lower than CATALOG_DEFAULT_PER_PAGE")
	}
	return nil
}
