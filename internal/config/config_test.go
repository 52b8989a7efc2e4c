package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	assert := assert.New(t)

	cfg := NewFromViper(NewEmptyViper())

	engine := cfg.GetEngine()
	assert.InDelta(0.2, engine.AllowThreshold, 1e-9)
	assert.InDelta(0.5, engine.FlagThreshold, 1e-9)
	assert.InDelta(0.7, engine.ReviewThreshold, 1e-9)
	assert.Equal(int64(4), engine.BatchConcurrency)
	assert.Empty(engine.TrustedDomains)

	assert.Len(engine.Weights, 9)
	assert.InDelta(0.9, engine.Weights["profanity"], 1e-9)
	assert.InDelta(0.85, engine.Weights["suspicious_links"], 1e-9)
	assert.InDelta(0.8, engine.Weights["fake_engagement"], 1e-9)
	assert.InDelta(0.75, engine.Weights["promotional"], 1e-9)
	assert.InDelta(0.7, engine.Weights["repetitive_content"], 1e-9)
	assert.InDelta(0.6, engine.Weights["caps_abuse"], 1e-9)
	assert.InDelta(0.5, engine.Weights["character_patterns"], 1e-9)
	assert.InDelta(0.5, engine.Weights["word_patterns"], 1e-9)
	assert.InDelta(0.5, engine.Weights["sentence_structure"], 1e-9)

	assert.Equal("pipe", cfg.GetFilter().Type)

	cache := cfg.GetCache()
	assert.True(cache.Enabled)
	assert.Equal(10000, cache.MaxEntries)

	store := cfg.GetStore()
	assert.Equal("none", store.Type)
	assert.True(store.LoadThrough)
	assert.Equal("/data/verdicts.db", store.SQLitePath)

	monitor := cfg.GetMonitor()
	assert.Equal(1000, monitor.MaxSamples)
	assert.InDelta(100.0, monitor.SlowRequestMs, 1e-9)
	assert.Equal(64, monitor.MemoryBudgetMB)

	logging := cfg.GetLogging()
	assert.Equal("info", logging.Level)
	assert.Equal("json", logging.Format)
}

func TestDefaultDurations(t *testing.T) {
	assert := assert.New(t)

	cfg := NewFromViper(NewEmptyViper())

	fixtures := []struct {
		key  string
		want time.Duration
	}{
		{key: "filter.timeout", want: 10 * time.Second},
		{key: "cache.ttl", want: 24 * time.Hour},
		{key: "cache.cleanup_frequency", want: time.Hour},
		{key: "store.retention", want: 720 * time.Hour},
		{key: "store.sweep_frequency", want: 6 * time.Hour},
	}
	for _, f := range fixtures {
		d, err := cfg.GetDuration(f.key)
		if assert.NoError(err, f.key) {
			assert.Equal(f.want, d, f.key)
		}
	}
}

func TestGetDurationRejectsGarbage(t *testing.T) {
	assert := assert.New(t)

	v := NewEmptyViper()
	v.Set("cache.ttl", "soon")

	_, err := NewFromViper(v).GetDuration("cache.ttl")
	assert.Error(err)
}

func TestExplicitValuesOverrideDefaults(t *testing.T) {
	assert := assert.New(t)

	v := NewEmptyViper()
	v.Set("engine.thresholds.allow", 0.1)
	v.Set("engine.trusted_domains", []string{"example.com", "example.org"})
	v.Set("cache.enabled", false)
	v.Set("store.type", "sqlite")
	v.Set("store.sqlite_path", "/tmp/test.db")
	v.Set("logging.level", "debug")

	cfg := NewFromViper(v)

	engine := cfg.GetEngine()
	assert.InDelta(0.1, engine.AllowThreshold, 1e-9)
	assert.InDelta(0.5, engine.FlagThreshold, 1e-9)
	assert.Equal([]string{"example.com", "example.org"}, engine.TrustedDomains)

	assert.False(cfg.GetCache().Enabled)
	assert.Equal("sqlite", cfg.GetStore().Type)
	assert.Equal("/tmp/test.db", cfg.GetStore().SQLitePath)
	assert.Equal("debug", cfg.GetLogging().Level)
}

func TestEnvironmentOverrides(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("RISK_FILTER_CACHE_MAX_ENTRIES", "500")
	t.Setenv("RISK_FILTER_ENGINE_THRESHOLDS_ALLOW", "0.15")
	t.Setenv("RISK_FILTER_ENGINE_WEIGHTS_PROFANITY", "0.95")
	t.Setenv("RISK_FILTER_LOGGING_LEVEL", "warn")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(500, cfg.GetCache().MaxEntries)

	engine := cfg.GetEngine()
	assert.InDelta(0.15, engine.AllowThreshold, 1e-9)

	// Key enumeration still comes from the defaults, values from the
	// environment.
	assert.Len(engine.Weights, 9)
	assert.InDelta(0.95, engine.Weights["profanity"], 1e-9)

	assert.Equal("warn", cfg.GetLogging().Level)
}

func TestGetViperExposesBackingInstance(t *testing.T) {
	assert := assert.New(t)

	v := NewEmptyViper()
	cfg := NewFromViper(v)

	assert.Same(v, cfg.GetViper())
}
