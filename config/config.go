package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig
	Remote       RemoteConfig
	Cache        CacheConfig
	Connectivity ConnectivityConfig
	Health       HealthConfig
	Sync         SyncConfig
	Log          LogConfig
}

// ServerConfig holds local API configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RemoteConfig holds the authoritative product API configuration
type RemoteConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	PingTimeout time.Duration `mapstructure:"ping_timeout"`
	SyncTimeout time.Duration `mapstructure:"sync_timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	RateLimit   float64       `mapstructure:"rate_limit"` // requests per second
	RateBurst   int           `mapstructure:"rate_burst"`
}

// CacheConfig holds local cache configuration
type CacheConfig struct {
	Type string `mapstructure:"type"` // "sqlite" or "memory"
	Path string `mapstructure:"path"`
}

// ConnectivityConfig holds connectivity monitor configuration
type ConnectivityConfig struct {
	Freshness time.Duration `mapstructure:"freshness"`
}

// HealthConfig holds health classification configuration
type HealthConfig struct {
	Threshold         int `mapstructure:"threshold"`
	AlternativesLimit int `mapstructure:"alternatives_limit"`
}

// SyncConfig holds catalog sync configuration
type SyncConfig struct {
	Interval time.Duration `mapstructure:"interval"` // 0 disables the scheduled worker
	OnStart  bool          `mapstructure:"on_start"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/macrolens/")

	v.SetEnvPrefix("MACROLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

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
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	v.SetDefault("remote.base_url", "http://localhost/api")
	v.SetDefault("remote.timeout", "3s")
	v.SetDefault("remote.ping_timeout", "2s")
	v.SetDefault("remote.sync_timeout", "10s")
	v.SetDefault("remote.max_retries", 2)
	v.SetDefault("remote.rate_limit", 10.0)
	v.SetDefault("remote.rate_burst", 20)

	v.SetDefault("cache.type", "sqlite")
	v.SetDefault("cache.path", "nutrition_cache.db")

	v.SetDefault("connectivity.freshness", "30s")

	v.SetDefault("health.threshold", 60)
	v.SetDefault("health.alternatives_limit", 3)

	v.SetDefault("sync.interval", "0s")
	v.SetDefault("sync.on_start", false)

	v.SetDefault("log.level", "info")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Remote.BaseURL == "" {
		return fmt.Errorf("remote base URL is required (set MACROLENS_REMOTE_BASE_URL)")
	}

	if config.Remote.Timeout <= 0 || config.Remote.PingTimeout <= 0 || config.Remote.SyncTimeout <= 0 {
		return fmt.Errorf("remote timeouts must be positive")
	}

	if config.Remote.MaxRetries < 0 {
		return fmt.Errorf("remote max retries must not be negative, got: %d", config.Remote.MaxRetries)
	}

	if config.Remote.RateLimit <= 0 || config.Remote.RateBurst <= 0 {
		return fmt.Errorf("remote rate limit and burst must be positive")
	}

	if config.Cache.Type != "sqlite" && config.Cache.Type != "memory" {
		return fmt.Errorf("cache type must be 'sqlite' or 'memory', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "sqlite" && config.Cache.Path == "" {
		return fmt.Errorf("cache path is required when cache type is 'sqlite'")
	}

	if config.Connectivity.Freshness < 0 {
		return fmt.Errorf("connectivity freshness must not be negative")
	}

	if config.Health.Threshold < 1 || config.Health.Threshold > 100 {
		return fmt.Errorf("health threshold must be between 1 and 100, got: %d", config.Health.Threshold)
	}

	if config.Health.AlternativesLimit < 0 {
		return fmt.Errorf("alternatives limit must not be negative, got: %d", config.Health.AlternativesLimit)
	}

	if config.Sync.Interval < 0 {
		return fmt.Errorf("sync interval must not be negative")
	}

	return nil
}
