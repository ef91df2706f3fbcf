package xpolicy

import (
	"fmt"
	"slices"
	"time"
)

// RetryConfig 重试策略配置（不可变值对象）。
//
// 每个错误类别一份，可通过 Apply 克隆出应用了覆盖的新副本，
// 原值永不被修改。
type RetryConfig struct {
	// MaxAttempts 最大尝试次数（包含首次尝试），最小为 1。
	MaxAttempts int

	// InitialDelay 首次重试前的基础延迟。
	InitialDelay time.Duration

	// MaxDelay 延迟上限，任何计算出的退避延迟不会超过此值。
	MaxDelay time.Duration

	// BackoffMultiplier 指数退避乘数，>= 1.0。
	BackoffMultiplier float64

	// JitterFactor 抖动因子，[0, 1]。0 表示确定性延迟。
	JitterFactor float64

	// RetryableCategories 可重试的错误类别集合。
	RetryableCategories []Category

	// RetryableSubcategories 可重试的子类别集合。
	// 类别不在 RetryableCategories 中时，子类别命中仍视为可重试。
	RetryableSubcategories []string

	// CircuitBreakerThreshold 滑动窗口内触发熔断的失败次数，>= 1。
	CircuitBreakerThreshold int

	// CircuitBreakerWindow 失败计数的滑动窗口时长，同时也是
	// 熔断打开后允许探测前的冷却时长。
	CircuitBreakerWindow time.Duration

	// HalfOpenMaxAttempts 半开状态下关闭电路所需的连续成功次数，>= 1。
	HalfOpenMaxAttempts int

	// AdaptiveAdjustment 是否应用自适应调整。
	AdaptiveAdjustment bool
}

// Validate 校验配置不变量。
// 违反任一不变量时返回包装了 [ErrInvalidConfig] 的错误。
func (c RetryConfig) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts %d < 1", ErrInvalidConfig, c.MaxAttempts)
	}
	if c.InitialDelay < 0 {
		return fmt.Errorf("%w: negative initial delay %v", ErrInvalidConfig, c.InitialDelay)
	}
	if c.MaxDelay < c.InitialDelay {
		return fmt.Errorf("%w: max delay %v < initial delay %v", ErrInvalidConfig, c.MaxDelay, c.InitialDelay)
	}
	if c.BackoffMultiplier < 1 {
		return fmt.Errorf("%w: backoff multiplier %v < 1", ErrInvalidConfig, c.BackoffMultiplier)
	}
	if c.JitterFactor < 0 || c.JitterFactor > 1 {
		return fmt.Errorf("%w: jitter factor %v outside [0,1]", ErrInvalidConfig, c.JitterFactor)
	}
	if c.CircuitBreakerThreshold < 1 {
		return fmt.Errorf("%w: circuit breaker threshold %d < 1", ErrInvalidConfig, c.CircuitBreakerThreshold)
	}
	if c.CircuitBreakerWindow <= 0 {
		return fmt.Errorf("%w: circuit breaker window %v <= 0", ErrInvalidConfig, c.CircuitBreakerWindow)
	}
	if c.HalfOpenMaxAttempts < 1 {
		return fmt.Errorf("%w: half-open max attempts %d < 1", ErrInvalidConfig, c.HalfOpenMaxAttempts)
	}
	return nil
}

// RetryableCategory 判断类别是否在可重试集合中。
func (c RetryConfig) RetryableCategory(cat Category) bool {
	return slices.Contains(c.RetryableCategories, cat)
}

// RetryableSubcategory 判断子类别是否在可重试集合中。
func (c RetryConfig) RetryableSubcategory(sub string) bool {
	return sub != "" && slices.Contains(c.RetryableSubcategories, sub)
}

// Clone 返回配置的深拷贝。
// 切片字段独立复制，修改副本不影响原值。
func (c RetryConfig) Clone() RetryConfig {
	c.RetryableCategories = slices.Clone(c.RetryableCategories)
	c.RetryableSubcategories = slices.Clone(c.RetryableSubcategories)
	return c
}

// Override 调用方提供的部分覆盖。
// nil 指针/ nil 切片表示保留原值，逐字段合并。
type Override struct {
	MaxAttempts             *int
	InitialDelay            *time.Duration
	MaxDelay                *time.Duration
	BackoffMultiplier       *float64
	JitterFactor            *float64
	RetryableCategories     []Category
	RetryableSubcategories  []string
	CircuitBreakerThreshold *int
	CircuitBreakerWindow    *time.Duration
	HalfOpenMaxAttempts     *int
	AdaptiveAdjustment      *bool
}

// Apply 返回应用了覆盖的新配置副本。
// o 为 nil 时等价于 Clone。
func (c RetryConfig) Apply(o *Override) RetryConfig {
	out := c.Clone()
	if o == nil {
		return out
	}
	if o.MaxAttempts != nil {
		out.MaxAttempts = *o.MaxAttempts
	}
	if o.InitialDelay != nil {
		out.InitialDelay = *o.InitialDelay
	}
	if o.MaxDelay != nil {
		out.MaxDelay = *o.MaxDelay
	}
	if o.BackoffMultiplier != nil {
		out.BackoffMultiplier = *o.BackoffMultiplier
	}
	if o.JitterFactor != nil {
		out.JitterFactor = *o.JitterFactor
	}
	if o.RetryableCategories != nil {
		out.RetryableCategories = slices.Clone(o.RetryableCategories)
	}
	if o.RetryableSubcategories != nil {
		out.RetryableSubcategories = slices.Clone(o.RetryableSubcategories)
	}
	if o.CircuitBreakerThreshold != nil {
		out.CircuitBreakerThreshold = *o.CircuitBreakerThreshold
	}
	if o.CircuitBreakerWindow != nil {
		out.CircuitBreakerWindow = *o.CircuitBreakerWindow
	}
	if o.HalfOpenMaxAttempts != nil {
		out.HalfOpenMaxAttempts = *o.HalfOpenMaxAttempts
	}
	if o.AdaptiveAdjustment != nil {
		out.AdaptiveAdjustment = *o.AdaptiveAdjustment
	}
	return out
}
