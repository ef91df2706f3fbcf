package xpolicy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlTable = `
policies:
  network:
    max_attempts: 6
    initial_delay_ms: 50
    max_delay_ms: 5000
    circuit_breaker_threshold: 3
    circuit_breaker_window_ms: 30000
    adaptive_adjustment: true
  rate_limit:
    initial_delay_ms: 2000
    adaptive_adjustment: false
`

func TestLoadTable_YAML(t *testing.T) {
	table, err := LoadTable([]byte(yamlTable), FormatYAML)
	require.NoError(t, err)

	net := table[CategoryNetwork]
	assert.Equal(t, 6, net.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, net.InitialDelay)
	assert.Equal(t, 5*time.Second, net.MaxDelay)
	assert.Equal(t, 3, net.CircuitBreakerThreshold)
	assert.Equal(t, 30*time.Second, net.CircuitBreakerWindow)
	assert.True(t, net.AdaptiveAdjustment)
	// 未给出的字段沿用类别默认值
	assert.Equal(t, 2.0, net.BackoffMultiplier)

	rl := table[CategoryRateLimit]
	assert.Equal(t, 2*time.Second, rl.InitialDelay)
	assert.False(t, rl.AdaptiveAdjustment)

	// 未出现在数据中的类别完整保留默认值
	assert.Equal(t, 1, table[CategoryValidation].MaxAttempts)
}

func TestLoadTable_JSON(t *testing.T) {
	data := []byte(`{"policies":{"timeout":{"max_attempts":5,"initial_delay_ms":300}}}`)
	table, err := LoadTable(data, FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, 5, table[CategoryTimeout].MaxAttempts)
	assert.Equal(t, 300*time.Millisecond, table[CategoryTimeout].InitialDelay)
}

func TestLoadTable_CustomCategory(t *testing.T) {
	data := []byte(`{"policies":{"billing":{"max_attempts":2}}}`)
	table, err := LoadTable(data, FormatJSON)
	require.NoError(t, err)

	// 自定义类别以 unknown 默认值为底
	cfg := table[Category("billing")]
	assert.Equal(t, 2, cfg.MaxAttempts)
	assert.NoError(t, cfg.Validate())
}

func TestLoadTable_Errors(t *testing.T) {
	t.Run("unsupported format", func(t *testing.T) {
		_, err := LoadTable([]byte("{}"), Format("toml"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("malformed data", func(t *testing.T) {
		_, err := LoadTable([]byte("{not json"), FormatJSON)
		assert.ErrorIs(t, err, ErrLoadFailed)
	})

	t.Run("invalid entry rejects whole table", func(t *testing.T) {
		data := []byte(`{"policies":{"network":{"max_delay_ms":1,"initial_delay_ms":100}}}`)
		_, err := LoadTable(data, FormatJSON)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("empty data keeps defaults", func(t *testing.T) {
		table, err := LoadTable([]byte(""), FormatYAML)
		require.NoError(t, err)
		assert.Equal(t, 4, table[CategoryNetwork].MaxAttempts)
	})
}
