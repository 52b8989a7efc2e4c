package config

// EngineConfig represents the scoring engine configuration
type EngineConfig struct {
	AllowThreshold   float64
	FlagThreshold    float64
	ReviewThreshold  float64
	BatchConcurrency int64
	TrustedDomains   []string
	Weights          map[string]float64
}

// FilterConfig represents the stream filter configuration
type FilterConfig struct {
	Type string
}

// CacheConfig represents the verdict cache configuration
type CacheConfig struct {
	Enabled    bool
	MaxEntries int
}

// StoreConfig represents the persistent verdict store configuration
type StoreConfig struct {
	Type        string
	LoadThrough bool
	SQLitePath  string
	MySQLDSN    string
	RedisURL    string
}

// MonitorConfig represents the performance monitor configuration
type MonitorConfig struct {
	MaxSamples     int
	SlowRequestMs  float64
	MemoryBudgetMB int
}

// LoggingConfig represents the logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// GetEngine returns the scoring engine configuration
func (c *Config) GetEngine() EngineConfig {
	weights := make(map[string]float64)
	for key := range c.v.GetStringMap("engine.weights") {
		weights[key] = c.GetFloat64("engine.weights." + key)
	}

	return EngineConfig{
		AllowThreshold:   c.GetFloat64("engine.thresholds.allow"),
		FlagThreshold:    c.GetFloat64("engine.thresholds.flag"),
		ReviewThreshold:  c.GetFloat64("engine.thresholds.review"),
		BatchConcurrency: int64(c.GetInt("engine.batch_concurrency")),
		TrustedDomains:   c.GetStringSlice("engine.trusted_domains"),
		Weights:          weights,
	}
}

// GetFilter returns the stream filter configuration
func (c *Config) GetFilter() FilterConfig {
	return FilterConfig{
		Type: c.GetString("filter.type"),
	}
}

// GetCache returns the verdict cache configuration
func (c *Config) GetCache() CacheConfig {
	return CacheConfig{
		Enabled:    c.GetBool("cache.enabled"),
		MaxEntries: c.GetInt("cache.max_entries"),
	}
}

// GetStore returns the persistent verdict store configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Type:        c.GetString("store.type"),
		LoadThrough: c.GetBool("store.load_through"),
		SQLitePath:  c.GetString("store.sqlite_path"),
		MySQLDSN:    c.GetString("store.mysql_dsn"),
		RedisURL:    c.GetString("store.redis_url"),
	}
}

// GetMonitor returns the performance monitor configuration
func (c *Config) GetMonitor() MonitorConfig {
	return MonitorConfig{
		MaxSamples:     c.GetInt("monitor.max_samples"),
		SlowRequestMs:  c.GetFloat64("monitor.slow_request_ms"),
		MemoryBudgetMB: c.GetInt("monitor.memory_budget_mb"),
	}
}

// GetLogging returns the logging configuration
func (c *Config) GetLogging() LoggingConfig {
	return LoggingConfig{
		Level:  c.GetString("logging.level"),
		Format: c.GetString("logging.format"),
	}
}
