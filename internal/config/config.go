package config

import (
	"errors"
	"fmt"
	"os"

	"verkstad/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App         AppConfig         `yaml:"app"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Logging     LoggingConfig     `yaml:"logging"`
	Monitoring  MonitoringConfig  `yaml:"monitoring"`
	API         APIConfig         `yaml:"api"`
	Marketplace MarketplaceConfig `yaml:"marketplace"`
	Worker      WorkerConfig      `yaml:"worker"`
	Exports     ExportConfig      `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address    string `yaml:"address"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	PoolSize   int    `yaml:"pool_size"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

// APIAuthConfig protects the admin surface; the marketplace endpoints are
// fronted by the session-holding gateway and stay open here.
type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// MarketplaceConfig carries the tunables of the bidding core. Defaults match
// production behavior; tests override them freely.
type MarketplaceConfig struct {
	BiddingWindowHours int     `yaml:"bidding_window_hours"`
	DefaultRadiusKm    float64 `yaml:"default_radius_km"`
	MaxRankedOffers    int     `yaml:"max_ranked_offers"`
	CommissionRate     float64 `yaml:"commission_rate"`
}

type WorkerConfig struct {
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; it only feeds the ${VAR} substitutions below.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}

	if c.Marketplace.BiddingWindowHours == 0 {
		c.Marketplace.BiddingWindowHours = models.DefaultBiddingWindowHours
	}
	if c.Marketplace.DefaultRadiusKm == 0 {
		c.Marketplace.DefaultRadiusKm = models.DefaultRadiusKm
	}
	if c.Marketplace.MaxRankedOffers == 0 {
		c.Marketplace.MaxRankedOffers = models.DefaultMaxRankedOffers
	}
	if c.Marketplace.CommissionRate == 0 {
		c.Marketplace.CommissionRate = models.DefaultCommissionRate
	}

	if c.Worker.SweepIntervalMinutes == 0 {
		c.Worker.SweepIntervalMinutes = models.DefaultSweepIntervalMinutes
	}
	if c.Redis.TTLSeconds == 0 {
		c.Redis.TTLSeconds = models.DefaultListingCacheTTL
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Marketplace.CommissionRate < 0 || c.Marketplace.CommissionRate >= 1 {
		return fmt.Errorf("commission rate must be a fraction in [0, 1): %f", c.Marketplace.CommissionRate)
	}
	if c.Marketplace.BiddingWindowHours < 0 {
		return fmt.Errorf("bidding window must be positive: %d", c.Marketplace.BiddingWindowHours)
	}
	if c.Marketplace.DefaultRadiusKm < 0 {
		return fmt.Errorf("default radius must be positive: %f", c.Marketplace.DefaultRadiusKm)
	}
	if c.API.Auth.Enabled && len(c.API.Auth.APIKeys) == 0 {
		return errors.New("api auth is enabled but no api keys are configured")
	}
	return nil
}
