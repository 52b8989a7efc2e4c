package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/risk-filter/")
	v.AddConfigPath("$HOME/.risk-filter")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("RISK_FILTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Engine defaults
	v.SetDefault("engine.thresholds.allow", 0.2)
	v.SetDefault("engine.thresholds.flag", 0.5)
	v.SetDefault("engine.thresholds.review", 0.7)
	v.SetDefault("engine.batch_concurrency", 4)
	v.SetDefault("engine.trusted_domains", []string{})

	// Signal weight defaults
	v.SetDefault("engine.weights.profanity", 0.9)
	v.SetDefault("engine.weights.suspicious_links", 0.85)
	v.SetDefault("engine.weights.fake_engagement", 0.8)
	v.SetDefault("engine.weights.promotional", 0.75)
	v.SetDefault("engine.weights.repetitive_content", 0.7)
	v.SetDefault("engine.weights.caps_abuse", 0.6)
	v.SetDefault("engine.weights.character_patterns", 0.5)
	v.SetDefault("engine.weights.word_patterns", 0.5)
	v.SetDefault("engine.weights.sentence_structure", 0.5)

	// Filter defaults
	v.SetDefault("filter.type", "pipe")
	v.SetDefault("filter.timeout", "10s")

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_entries", 10000)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_frequency", "1h")

	// Store defaults
	v.SetDefault("store.type", "none")
	v.SetDefault("store.load_through", true)
	v.SetDefault("store.retention", "720h")
	v.SetDefault("store.sweep_frequency", "6h")
	v.SetDefault("store.sqlite_path", "/data/verdicts.db")
	v.SetDefault("store.mysql_dsn", "user:password@tcp(localhost:3306)/risk_filter")
	v.SetDefault("store.redis_url", "redis://localhost:6379/0")

	// Monitor defaults
	v.SetDefault("monitor.max_samples", 1000)
	v.SetDefault("monitor.slow_request_ms", 100.0)
	v.SetDefault("monitor.memory_budget_mb", 64)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
