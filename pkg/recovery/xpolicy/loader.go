package xpolicy

import (
	"fmt"
	"time"

	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 策略表数据格式。
type Format string

// 支持的策略表格式。
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

const defaultWindow = 60 * time.Second

// policySpec 策略表的线格式。
// 延迟字段以毫秒整数表示，避免依赖反序列化钩子解析时长字符串。
type policySpec struct {
	MaxAttempts             int      `koanf:"max_attempts"`
	InitialDelayMs          int64    `koanf:"initial_delay_ms"`
	MaxDelayMs              int64    `koanf:"max_delay_ms"`
	BackoffMultiplier       float64  `koanf:"backoff_multiplier"`
	JitterFactor            float64  `koanf:"jitter_factor"`
	RetryableCategories     []string `koanf:"retryable_categories"`
	RetryableSubcategories  []string `koanf:"retryable_subcategories"`
	CircuitBreakerThreshold int      `koanf:"circuit_breaker_threshold"`
	CircuitBreakerWindowMs  int64    `koanf:"circuit_breaker_window_ms"`
	HalfOpenMaxAttempts     int      `koanf:"half_open_max_attempts"`
	AdaptiveAdjustment      *bool    `koanf:"adaptive_adjustment"`
}

// tableSpec 策略表文件结构。
type tableSpec struct {
	Policies map[string]policySpec `koanf:"policies"`
}

// LoadTable 从字节数据加载按类别的策略表。
//
// 数据结构形如：
//
//	policies:
//	  network:
//	    max_attempts: 4
//	    initial_delay_ms: 100
//	    max_delay_ms: 10000
//	    backoff_multiplier: 2.0
//	    jitter_factor: 0.1
//	    retryable_categories: [network, timeout]
//	    circuit_breaker_threshold: 5
//	    circuit_breaker_window_ms: 60000
//	    adaptive_adjustment: true
//
// 未出现在数据中的类别沿用 [DefaultTable] 的对应项。
// 任一条目校验失败时整表拒绝，返回包装了 [ErrInvalidConfig] 的错误，
// 不会静默回退到空表。
func LoadTable(data []byte, format Format) (map[Category]RetryConfig, error) {
	k := koanf.New(".")

	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = kyaml.Parser()
	case FormatJSON:
		parser = kjson.Parser()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	var spec tableSpec
	if err := k.Unmarshal("", &spec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	table := DefaultTable()
	for name, ps := range spec.Policies {
		cat := Category(name)
		base, ok := table[cat]
		if !ok {
			// 自定义类别以 unknown 的保守默认值为底。
			base = table[CategoryUnknown]
		}
		cfg := specToConfig(ps, base)
		if err := cfg.Validate(); err != nil {
			return nil, wrapTableError(cat, err)
		}
		table[cat] = cfg
	}
	return table, nil
}

// specToConfig 将线格式转换为 RetryConfig。
// 零值字段沿用 base（类别默认值），显式配置的字段覆盖。
func specToConfig(ps policySpec, base RetryConfig) RetryConfig {
	cfg := base.Clone()
	if ps.MaxAttempts > 0 {
		cfg.MaxAttempts = ps.MaxAttempts
	}
	if ps.InitialDelayMs > 0 {
		cfg.InitialDelay = time.Duration(ps.InitialDelayMs) * time.Millisecond
	}
	if ps.MaxDelayMs > 0 {
		cfg.MaxDelay = time.Duration(ps.MaxDelayMs) * time.Millisecond
	}
	if ps.BackoffMultiplier > 0 {
		cfg.BackoffMultiplier = ps.BackoffMultiplier
	}
	if ps.JitterFactor > 0 {
		cfg.JitterFactor = ps.JitterFactor
	}
	if ps.RetryableCategories != nil {
		cats := make([]Category, 0, len(ps.RetryableCategories))
		for _, c := range ps.RetryableCategories {
			cats = append(cats, Category(c))
		}
		cfg.RetryableCategories = cats
	}
	if ps.RetryableSubcategories != nil {
		cfg.RetryableSubcategories = append([]string(nil), ps.RetryableSubcategories...)
	}
	if ps.CircuitBreakerThreshold > 0 {
		cfg.CircuitBreakerThreshold = ps.CircuitBreakerThreshold
	}
	if ps.CircuitBreakerWindowMs > 0 {
		cfg.CircuitBreakerWindow = time.Duration(ps.CircuitBreakerWindowMs) * time.Millisecond
	}
	if ps.HalfOpenMaxAttempts > 0 {
		cfg.HalfOpenMaxAttempts = ps.HalfOpenMaxAttempts
	}
	if ps.AdaptiveAdjustment != nil {
		cfg.AdaptiveAdjustment = *ps.AdaptiveAdjustment
	}
	return cfg
}

// wrapTableError 标注校验失败的类别。
func wrapTableError(cat Category, err error) error {
	return fmt.Errorf("category %q: %w", cat, err)
}
