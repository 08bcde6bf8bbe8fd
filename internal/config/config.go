package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// HTTPConfig holds listener settings.
type HTTPConfig struct {
	Port string `yaml:"port" env:"HTTP_PORT"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"DATABASE_PATH"`
}

// IngestConfig controls the background fetch loop.
type IngestConfig struct {
	Interval      time.Duration `yaml:"interval" env:"FETCH_INTERVAL"`
	RetentionDays int           `yaml:"retention_days" env:"DATA_RETENTION_DAYS"`
}

// UpstreamConfig points at the external telemetry and price APIs.
type UpstreamConfig struct {
	GridURL  string        `yaml:"grid_url" env:"GRID_URL"`
	PriceURL string        `yaml:"price_url" env:"PRICE_URL"`
	Timeout  time.Duration `yaml:"timeout" env:"UPSTREAM_TIMEOUT"`
}

// APIConfig bounds public query endpoints.
type APIConfig struct {
	MaxDays      int `yaml:"max_days" env:"API_MAX_DAYS"`
	RateLimitRPS int `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
}

// InternalConfig guards operator-only endpoints.
type InternalConfig struct {
	JWTSecret   string `yaml:"jwt_secret" env:"INTERNAL_JWT_SECRET"`
	EnableDebug bool   `yaml:"enable_debug" env:"ENABLE_DEBUG_ENDPOINTS"`
}

// CurrencyConfig carries presentation-time conversion rates from the stored
// currency (EUR) to others. Converted values are never persisted.
type CurrencyConfig struct {
	Rates map[string]float64 `yaml:"rates" env:"-"`
}

// Config defines the full service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Upstream UpstreamConfig `yaml:"upstream"`
	API      APIConfig      `yaml:"api"`
	Internal InternalConfig `yaml:"internal"`
	Currency CurrencyConfig `yaml:"currency"`
}

const (
	defaultGridURL  = "https://driftsdata.statnett.no/restapi/ProductionConsumption/GetLatestDetailedOverview"
	defaultPriceURL = "https://dataportal-api.nordpoolgroup.com/api/DayAheadPrices"
)

// Load builds configuration from YAML file plus env overrides.
func Load() (*Config, error) {
	cfg := &Config{
		HTTP:     HTTPConfig{Port: "8080"},
		Database: DatabaseConfig{Path: "/data/energy.db"},
		Ingest: IngestConfig{
			Interval:      5 * time.Minute,
			RetentionDays: 200,
		},
		Upstream: UpstreamConfig{
			GridURL:  defaultGridURL,
			PriceURL: defaultPriceURL,
			Timeout:  30 * time.Second,
		},
		API: APIConfig{
			MaxDays:      200,
			RateLimitRPS: 30,
		},
	}

	if err := load(cfg); err != nil {
		return nil, err
	}

	if cfg.Ingest.Interval < time.Minute {
		return nil, errors.New("config: fetch interval below one minute")
	}
	if cfg.Ingest.RetentionDays < 0 {
		return nil, errors.New("config: retention days must be non-negative")
	}
	if strings.TrimSpace(cfg.Database.Path) == "" {
		return nil, errors.New("config: database path required")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}
