package xretry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/omeyang/xrecover/pkg/recovery/xpolicy"
)

func backoffConfig(jitter float64) xpolicy.RetryConfig {
	return xpolicy.RetryConfig{
		MaxAttempts:             5,
		InitialDelay:            100 * time.Millisecond,
		MaxDelay:                10 * time.Second,
		BackoffMultiplier:       2.0,
		JitterFactor:            jitter,
		CircuitBreakerThreshold: 5,
		CircuitBreakerWindow:    time.Minute,
		HalfOpenMaxAttempts:     1,
	}
}

func TestDelay_Deterministic(t *testing.T) {
	cfg := backoffConfig(0)

	assert.Equal(t, 100*time.Millisecond, Delay(1, cfg))
	assert.Equal(t, 200*time.Millisecond, Delay(2, cfg))
	assert.Equal(t, 400*time.Millisecond, Delay(3, cfg))
}

func TestDelay_CappedAtMaxDelay(t *testing.T) {
	cfg := backoffConfig(0)

	for n := 1; n <= 64; n++ {
		d := Delay(n, cfg)
		assert.LessOrEqual(t, d, cfg.MaxDelay, "attempt %d", n)
		assert.GreaterOrEqual(t, d, time.Duration(0), "attempt %d", n)
	}
	// 足够大的尝试次数收敛到上限
	assert.Equal(t, cfg.MaxDelay, Delay(20, cfg))
}

func TestDelay_NonDecreasingWithoutJitter(t *testing.T) {
	cfg := backoffConfig(0)

	prev := time.Duration(-1)
	for n := 1; n <= 30; n++ {
		d := Delay(n, cfg)
		assert.GreaterOrEqual(t, d, prev, "attempt %d", n)
		prev = d
	}
}

func TestDelay_JitterStaysInBound(t *testing.T) {
	cfg := backoffConfig(0.5)

	for i := 0; i < 200; i++ {
		d := Delay(3, cfg)
		// base 400ms，抖动 ±50%
		assert.GreaterOrEqual(t, d, 200*time.Millisecond)
		assert.LessOrEqual(t, d, 600*time.Millisecond)
	}
}

func TestDelay_EdgeCases(t *testing.T) {
	t.Run("attempt below one treated as one", func(t *testing.T) {
		cfg := backoffConfig(0)
		assert.Equal(t, Delay(1, cfg), Delay(0, cfg))
		assert.Equal(t, Delay(1, cfg), Delay(-5, cfg))
	})

	t.Run("overflowing exponent clamps to max", func(t *testing.T) {
		cfg := backoffConfig(0)
		assert.Equal(t, cfg.MaxDelay, Delay(1<<20, cfg))
	})

	t.Run("zero initial delay stays zero without jitter base", func(t *testing.T) {
		cfg := backoffConfig(0)
		cfg.InitialDelay = 0
		assert.Equal(t, time.Duration(0), Delay(1, cfg))
	})
}
