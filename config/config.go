package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Dataset   DatasetConfig
	Images    ImagesConfig
	Matching  MatchingConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatasetConfig holds recipe dataset configuration
type DatasetConfig struct {
	Path          string `mapstructure:"path"`
	Format        string `mapstructure:"format"` // "csv" or "sqlite"
	LoadOnStartup bool   `mapstructure:"load_on_startup"`
	LazyLoad      bool   `mapstructure:"lazy_load"`
	SourceURL     string `mapstructure:"source_url"`
}

// ImagesConfig holds image directory configuration
type ImagesConfig struct {
	Dir string `mapstructure:"dir"`
}

// MatchingConfig holds recipe matching configuration
type MatchingConfig struct {
	DefaultTopN        int  `mapstructure:"default_top_n"`
	MaxTopN            int  `mapstructure:"max_top_n"`
	EnableDebugLogging bool `mapstructure:"enable_debug_logging"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type string        `mapstructure:"type"` // "memory" or "none"
	TTL  time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute, 0 disables
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/recipelens/")

	// RECIPELENS_DATASET_PATH -> dataset.path
	v.SetEnvPrefix("RECIPELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", "10s")

	// Dataset defaults
	v.SetDefault("dataset.path", "data/recipes.csv")
	v.SetDefault("dataset.format", "csv")
	v.SetDefault("dataset.load_on_startup", true)
	v.SetDefault("dataset.lazy_load", true)
	v.SetDefault("dataset.source_url", "")

	// Images defaults
	v.SetDefault("images.dir", "data/images")

	// Matching defaults
	v.SetDefault("matching.default_top_n", 10)
	v.SetDefault("matching.max_top_n", 50)
	v.SetDefault("matching.enable_debug_logging", false)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "10m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Dataset.Path == "" {
		return fmt.Errorf("dataset path is required (set RECIPELENS_DATASET_PATH)")
	}

	if config.Dataset.Format != "csv" && config.Dataset.Format != "sqlite" {
		return fmt.Errorf("dataset format must be 'csv' or 'sqlite', got: %s", config.Dataset.Format)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "none" {
		return fmt.Errorf("cache type must be 'memory' or 'none', got: %s", config.Cache.Type)
	}

	if config.Matching.DefaultTopN <= 0 {
		return fmt.Errorf("matching.default_top_n must be positive, got: %d", config.Matching.DefaultTopN)
	}

	if config.Matching.MaxTopN < config.Matching.DefaultTopN {
		return fmt.Errorf("matching.max_top_n (%d) must not be below default_top_n (%d)",
			config.Matching.MaxTopN, config.Matching.DefaultTopN)
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("ratelimit.per_ip must not be negative, got: %d", config.RateLimit.PerIP)
	}

	return nil
}

// loadEnvFile exports KEY=VALUE pairs from ./.env into the process environment.
// Variables already set are left alone; a missing file is not an error.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		return nil
	}
	return gotenv.Load(".env")
}
