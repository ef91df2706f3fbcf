package xpolicy

import (
	"maps"
	"sync"
)

// Resolver 策略解析器。
//
// 按 (component, category) 产出生效配置，合并顺序固定：
// 类别默认值 → 调用方覆盖 → 自适应调整（仅当 AdaptiveAdjustment 开启）。
// Resolve 无副作用，是对当前策略表与调整日志的纯函数。
// 所有方法并发安全。
type Resolver struct {
	mu     sync.RWMutex
	table  map[Category]RetryConfig
	source AdjustmentSource
}

// ResolverOption 解析器配置选项。
type ResolverOption func(*Resolver)

// WithTable 替换默认策略表。
// nil 或空表会被静默忽略（保留默认表）。
func WithTable(table map[Category]RetryConfig) ResolverOption {
	return func(r *Resolver) {
		if len(table) > 0 {
			r.table = maps.Clone(table)
		}
	}
}

// WithAdjustmentSource 设置自适应调整来源。
func WithAdjustmentSource(s AdjustmentSource) ResolverOption {
	return func(r *Resolver) {
		if s != nil {
			r.source = s
		}
	}
}

// WithClassifier 使用外部分类器修正默认表的可重试集合。
// 需在 WithTable 之后应用才能作用于自定义表。
func WithClassifier(c Classifier) ResolverOption {
	return func(r *Resolver) {
		r.table = SeedFromClassifier(r.table, c)
	}
}

// NewResolver 创建策略解析器，默认使用 [DefaultTable]。
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{table: DefaultTable()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Resolve 解析 (component, category) 的生效配置。
//
// 类别不在表中时回退到 CategoryUnknown 的配置。
// 合并后的配置会做边界收敛（见 normalize），保证不变量成立，
// 调用方覆盖出的非法值不会让后续退避计算越界。
func (r *Resolver) Resolve(component string, category Category, ov *Override) RetryConfig {
	r.mu.RLock()
	base, ok := r.table[category]
	if !ok {
		base = r.table[CategoryUnknown]
	}
	source := r.source
	r.mu.RUnlock()

	cfg := base.Apply(ov)
	if cfg.AdaptiveAdjustment && source != nil {
		cfg = applyAdjustments(cfg, source.LatestAdjustments(CircuitKey(component, category)))
	}
	return normalize(cfg)
}

// SetTable 原子替换整个策略表。
// 表会先逐项校验，任一配置非法时整表拒绝并返回错误。
func (r *Resolver) SetTable(table map[Category]RetryConfig) error {
	for cat, cfg := range table {
		if err := cfg.Validate(); err != nil {
			return wrapTableError(cat, err)
		}
	}
	r.mu.Lock()
	r.table = maps.Clone(table)
	r.mu.Unlock()
	return nil
}

// Table 返回当前策略表的快照副本。
func (r *Resolver) Table() map[Category]RetryConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[Category]RetryConfig, len(r.table))
	for cat, cfg := range r.table {
		out[cat] = cfg.Clone()
	}
	return out
}

// normalize 对合并后的配置做边界收敛，保证不变量成立。
func normalize(c RetryConfig) RetryConfig {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.InitialDelay < 0 {
		c.InitialDelay = 0
	}
	if c.MaxDelay < c.InitialDelay {
		c.MaxDelay = c.InitialDelay
	}
	if c.BackoffMultiplier < 1 {
		c.BackoffMultiplier = 1
	}
	if c.JitterFactor < 0 {
		c.JitterFactor = 0
	} else if c.JitterFactor > 1 {
		c.JitterFactor = 1
	}
	if c.CircuitBreakerThreshold < 1 {
		c.CircuitBreakerThreshold = 1
	}
	if c.CircuitBreakerWindow <= 0 {
		c.CircuitBreakerWindow = defaultWindow
	}
	if c.HalfOpenMaxAttempts < 1 {
		c.HalfOpenMaxAttempts = 1
	}
	return c
}
