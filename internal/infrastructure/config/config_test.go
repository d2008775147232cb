package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Forecast: ForecastConfig{
			MinEvents:           3,
			LowStockHorizonDays: 3,
			Categories:          DefaultCategoryRules(),
		},
		Optimizer: OptimizerConfig{DefaultDayCount: 5},
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Forecast.MinEvents)
	assert.Equal(t, 3, cfg.Forecast.LowStockHorizonDays)
	assert.NotEmpty(t, cfg.Forecast.StopTokens)
	assert.Equal(t, 5, cfg.Optimizer.DefaultDayCount)
	assert.Equal(t, "Annet", cfg.Shopping.FallbackGroup)
	assert.False(t, cfg.Kassal.Enabled)
	assert.False(t, cfg.Cache.Enabled)

	// 分類規則順序固定：fresh > dairy > household
	require.Len(t, cfg.Forecast.Categories, 3)
	assert.Equal(t, "fresh", cfg.Forecast.Categories[0].Name)
	assert.Equal(t, 7, cfg.Forecast.Categories[0].MaxSupplyDays)
	assert.Equal(t, "dairy", cfg.Forecast.Categories[1].Name)
	assert.Equal(t, 14, cfg.Forecast.Categories[1].MaxSupplyDays)
	assert.Equal(t, "household", cfg.Forecast.Categories[2].Name)
	assert.Equal(t, 0.9, cfg.Forecast.Categories[2].SupplyFactor)
}

func TestValidateConfig(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validateConfig(validTestConfig()))
	})

	t.Run("missing port", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Server.Port = 0
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("min events too small", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Forecast.MinEvents = 1
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("negative horizon", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Forecast.LowStockHorizonDays = -1
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("category rule without keywords", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Forecast.Categories = []CategoryRule{{Name: "fresh"}}
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("non-positive day count", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Optimizer.DefaultDayCount = 0
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("cache enabled without addr", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Cache.Enabled = true
		cfg.Cache.TTL = time.Minute
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("kassal enabled without key", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Kassal.Enabled = true
		assert.Error(t, validateConfig(cfg))
	})
}
