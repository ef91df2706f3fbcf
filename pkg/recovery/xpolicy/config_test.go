package xpolicy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:             3,
		InitialDelay:            100 * time.Millisecond,
		MaxDelay:                10 * time.Second,
		BackoffMultiplier:       2.0,
		JitterFactor:            0.1,
		RetryableCategories:     []Category{CategoryNetwork},
		RetryableSubcategories:  []string{"connection_reset"},
		CircuitBreakerThreshold: 5,
		CircuitBreakerWindow:    60 * time.Second,
		HalfOpenMaxAttempts:     1,
		AdaptiveAdjustment:      true,
	}
}

func TestRetryConfig_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	tests := []struct {
		name   string
		mutate func(*RetryConfig)
	}{
		{"zero max attempts", func(c *RetryConfig) { c.MaxAttempts = 0 }},
		{"negative initial delay", func(c *RetryConfig) { c.InitialDelay = -time.Second }},
		{"max delay below initial", func(c *RetryConfig) { c.MaxDelay = 10 * time.Millisecond }},
		{"multiplier below one", func(c *RetryConfig) { c.BackoffMultiplier = 0.5 }},
		{"jitter above one", func(c *RetryConfig) { c.JitterFactor = 1.5 }},
		{"negative jitter", func(c *RetryConfig) { c.JitterFactor = -0.1 }},
		{"zero threshold", func(c *RetryConfig) { c.CircuitBreakerThreshold = 0 }},
		{"zero window", func(c *RetryConfig) { c.CircuitBreakerWindow = 0 }},
		{"zero half-open attempts", func(c *RetryConfig) { c.HalfOpenMaxAttempts = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestRetryConfig_Clone(t *testing.T) {
	orig := validConfig()
	clone := orig.Clone()

	clone.RetryableCategories[0] = CategoryAuth
	clone.RetryableSubcategories[0] = "changed"

	assert.Equal(t, CategoryNetwork, orig.RetryableCategories[0])
	assert.Equal(t, "connection_reset", orig.RetryableSubcategories[0])
}

func TestRetryConfig_Apply(t *testing.T) {
	t.Run("nil override keeps config", func(t *testing.T) {
		cfg := validConfig()
		assert.Equal(t, cfg, cfg.Apply(nil))
	})

	t.Run("partial override merges field by field", func(t *testing.T) {
		cfg := validConfig()
		attempts := 7
		delay := 500 * time.Millisecond
		out := cfg.Apply(&Override{
			MaxAttempts:  &attempts,
			InitialDelay: &delay,
		})

		assert.Equal(t, 7, out.MaxAttempts)
		assert.Equal(t, delay, out.InitialDelay)
		// 未覆盖的字段保持原值
		assert.Equal(t, cfg.MaxDelay, out.MaxDelay)
		assert.Equal(t, cfg.BackoffMultiplier, out.BackoffMultiplier)
	})

	t.Run("override does not mutate original", func(t *testing.T) {
		cfg := validConfig()
		attempts := 9
		_ = cfg.Apply(&Override{MaxAttempts: &attempts})
		assert.Equal(t, 3, cfg.MaxAttempts)
	})

	t.Run("category slices replaced wholesale", func(t *testing.T) {
		cfg := validConfig()
		out := cfg.Apply(&Override{RetryableCategories: []Category{CategoryServer}})
		require.Len(t, out.RetryableCategories, 1)
		assert.Equal(t, CategoryServer, out.RetryableCategories[0])
	})
}

func TestRetryConfig_RetryableLookups(t *testing.T) {
	cfg := validConfig()

	assert.True(t, cfg.RetryableCategory(CategoryNetwork))
	assert.False(t, cfg.RetryableCategory(CategoryValidation))
	assert.True(t, cfg.RetryableSubcategory("connection_reset"))
	assert.False(t, cfg.RetryableSubcategory(""))
	assert.False(t, cfg.RetryableSubcategory("other"))
}

func TestCircuitKey(t *testing.T) {
	assert.Equal(t, "api:network", CircuitKey("api", CategoryNetwork))
	assert.Equal(t, "default:network", CircuitKey("", CategoryNetwork))
	assert.Equal(t, "api:unknown", CircuitKey("api", ""))
}
