package xpolicy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource 固定返回预设调整日志的 AdjustmentSource。
type stubSource struct {
	adjs map[string][]Adjustment
}

func (s *stubSource) LatestAdjustments(key string) []Adjustment {
	return s.adjs[key]
}

func TestResolver_Resolve(t *testing.T) {
	t.Run("category default", func(t *testing.T) {
		r := NewResolver()
		cfg := r.Resolve("api", CategoryNetwork, nil)

		assert.Equal(t, 4, cfg.MaxAttempts)
		assert.True(t, cfg.RetryableCategory(CategoryNetwork))
	})

	t.Run("unknown category falls back to unknown defaults", func(t *testing.T) {
		r := NewResolver()
		cfg := r.Resolve("api", Category("made-up"), nil)

		assert.Equal(t, 2, cfg.MaxAttempts)
	})

	t.Run("validation is non-retryable by default", func(t *testing.T) {
		r := NewResolver()
		cfg := r.Resolve("api", CategoryValidation, nil)

		assert.Equal(t, 1, cfg.MaxAttempts)
		assert.Empty(t, cfg.RetryableCategories)
	})

	t.Run("override wins over default", func(t *testing.T) {
		r := NewResolver()
		attempts := 8
		cfg := r.Resolve("api", CategoryNetwork, &Override{MaxAttempts: &attempts})

		assert.Equal(t, 8, cfg.MaxAttempts)
	})

	t.Run("adaptive adjustment applied after override", func(t *testing.T) {
		src := &stubSource{adjs: map[string][]Adjustment{
			"api:network": {
				{Type: AdjustRetryCount, OldValue: 4, NewValue: 6},
				{Type: AdjustBackoff, OldValue: 100, NewValue: 150},
			},
		}}
		r := NewResolver(WithAdjustmentSource(src))
		cfg := r.Resolve("api", CategoryNetwork, nil)

		assert.Equal(t, 6, cfg.MaxAttempts)
		assert.Equal(t, 150*time.Millisecond, cfg.InitialDelay)
	})

	t.Run("adjustments ignored when adaptive disabled", func(t *testing.T) {
		src := &stubSource{adjs: map[string][]Adjustment{
			"api:network": {{Type: AdjustRetryCount, NewValue: 9}},
		}}
		r := NewResolver(WithAdjustmentSource(src))
		off := false
		cfg := r.Resolve("api", CategoryNetwork, &Override{AdaptiveAdjustment: &off})

		assert.Equal(t, 4, cfg.MaxAttempts)
	})

	t.Run("retry count adjustment bounded by ceiling", func(t *testing.T) {
		src := &stubSource{adjs: map[string][]Adjustment{
			"api:network": {{Type: AdjustRetryCount, NewValue: 99}},
		}}
		r := NewResolver(WithAdjustmentSource(src))
		cfg := r.Resolve("api", CategoryNetwork, nil)

		assert.Equal(t, 10, cfg.MaxAttempts)
	})

	t.Run("resolve normalizes bogus override", func(t *testing.T) {
		r := NewResolver()
		jitter := 3.5
		attempts := -1
		cfg := r.Resolve("api", CategoryNetwork, &Override{
			JitterFactor: &jitter,
			MaxAttempts:  &attempts,
		})

		assert.Equal(t, 1.0, cfg.JitterFactor)
		assert.Equal(t, 1, cfg.MaxAttempts)
		assert.NoError(t, cfg.Validate())
	})
}

func TestResolver_SetTable(t *testing.T) {
	t.Run("rejects invalid entry wholesale", func(t *testing.T) {
		r := NewResolver()
		bad := map[Category]RetryConfig{
			CategoryNetwork: {MaxAttempts: 0},
		}
		err := r.SetTable(bad)
		require.ErrorIs(t, err, ErrInvalidConfig)

		// 旧表仍然生效
		assert.Equal(t, 4, r.Resolve("api", CategoryNetwork, nil).MaxAttempts)
	})

	t.Run("replaces table atomically", func(t *testing.T) {
		r := NewResolver()
		table := DefaultTable()
		cfg := table[CategoryNetwork]
		cfg.MaxAttempts = 9
		table[CategoryNetwork] = cfg

		require.NoError(t, r.SetTable(table))
		assert.Equal(t, 9, r.Resolve("api", CategoryNetwork, nil).MaxAttempts)
	})
}

func TestSeedFromClassifier(t *testing.T) {
	table := DefaultTable()
	table = SeedFromClassifier(table, classifierFunc(func(cat Category, _ string) Classification {
		return Classification{Recoverable: cat != CategoryNetwork}
	}))

	// network 被分类器判定为不可恢复，从自身可重试集合中移除
	assert.False(t, table[CategoryNetwork].RetryableCategory(CategoryNetwork))
	// timeout 的集合里仍可包含 network（只影响类别自身）
	assert.True(t, table[CategoryTimeout].RetryableCategory(CategoryTimeout))
}

type classifierFunc func(Category, string) Classification

func (f classifierFunc) Classify(cat Category, sub string) Classification {
	return f(cat, sub)
}
