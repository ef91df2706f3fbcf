package xpolicy

import "time"

// DefaultTable 返回内置的按类别默认策略表。
//
// 网络/超时类错误获得更多尝试次数；限流错误退避更长；
// 校验与认证错误配置为不可重试（首次尝试即快速失败）。
// 返回的 map 及其中切片均为新分配，调用方可安全修改。
func DefaultTable() map[Category]RetryConfig {
	return map[Category]RetryConfig{
		CategoryNetwork: {
			MaxAttempts:             4,
			InitialDelay:            100 * time.Millisecond,
			MaxDelay:                10 * time.Second,
			BackoffMultiplier:       2.0,
			JitterFactor:            0.1,
			RetryableCategories:     []Category{CategoryNetwork, CategoryTimeout},
			CircuitBreakerThreshold: 5,
			CircuitBreakerWindow:    60 * time.Second,
			HalfOpenMaxAttempts:     1,
			AdaptiveAdjustment:      true,
		},
		CategoryTimeout: {
			MaxAttempts:             3,
			InitialDelay:            200 * time.Millisecond,
			MaxDelay:                15 * time.Second,
			BackoffMultiplier:       2.0,
			JitterFactor:            0.1,
			RetryableCategories:     []Category{CategoryTimeout, CategoryNetwork},
			CircuitBreakerThreshold: 5,
			CircuitBreakerWindow:    60 * time.Second,
			HalfOpenMaxAttempts:     1,
			AdaptiveAdjustment:      true,
		},
		CategoryRateLimit: {
			MaxAttempts:             3,
			InitialDelay:            time.Second,
			MaxDelay:                30 * time.Second,
			BackoffMultiplier:       3.0,
			JitterFactor:            0.2,
			RetryableCategories:     []Category{CategoryRateLimit},
			CircuitBreakerThreshold: 10,
			CircuitBreakerWindow:    120 * time.Second,
			HalfOpenMaxAttempts:     1,
			AdaptiveAdjustment:      true,
		},
		CategoryServer: {
			MaxAttempts:             3,
			InitialDelay:            250 * time.Millisecond,
			MaxDelay:                10 * time.Second,
			BackoffMultiplier:       2.0,
			JitterFactor:            0.1,
			RetryableCategories:     []Category{CategoryServer, CategoryNetwork},
			CircuitBreakerThreshold: 5,
			CircuitBreakerWindow:    60 * time.Second,
			HalfOpenMaxAttempts:     1,
			AdaptiveAdjustment:      true,
		},
		CategoryResource: {
			MaxAttempts:             3,
			InitialDelay:            500 * time.Millisecond,
			MaxDelay:                20 * time.Second,
			BackoffMultiplier:       2.0,
			JitterFactor:            0.1,
			RetryableCategories:     []Category{CategoryResource},
			CircuitBreakerThreshold: 3,
			CircuitBreakerWindow:    60 * time.Second,
			HalfOpenMaxAttempts:     1,
			AdaptiveAdjustment:      true,
		},
		CategoryAuth: {
			MaxAttempts:             1,
			InitialDelay:            0,
			MaxDelay:                time.Second,
			BackoffMultiplier:       1.0,
			JitterFactor:            0,
			RetryableCategories:     nil,
			CircuitBreakerThreshold: 5,
			CircuitBreakerWindow:    60 * time.Second,
			HalfOpenMaxAttempts:     1,
			AdaptiveAdjustment:      false,
		},
		CategoryValidation: {
			MaxAttempts:             1,
			InitialDelay:            0,
			MaxDelay:                time.Second,
			BackoffMultiplier:       1.0,
			JitterFactor:            0,
			RetryableCategories:     nil,
			CircuitBreakerThreshold: 10,
			CircuitBreakerWindow:    60 * time.Second,
			HalfOpenMaxAttempts:     1,
			AdaptiveAdjustment:      false,
		},
		CategoryUnknown: {
			MaxAttempts:             2,
			InitialDelay:            200 * time.Millisecond,
			MaxDelay:                5 * time.Second,
			BackoffMultiplier:       2.0,
			JitterFactor:            0.1,
			RetryableCategories:     []Category{CategoryUnknown},
			CircuitBreakerThreshold: 5,
			CircuitBreakerWindow:    60 * time.Second,
			HalfOpenMaxAttempts:     1,
			AdaptiveAdjustment:      true,
		},
	}
}

// SeedFromClassifier 使用外部分类器修正默认表的可重试集合。
//
// 对表中每个类别咨询一次分类器（子类别传空串）：
// Recoverable 为 false 时从该类别自身的可重试集合中移除自己。
// 分类器只在建表时被调用，不参与逐次重试判断。
func SeedFromClassifier(table map[Category]RetryConfig, c Classifier) map[Category]RetryConfig {
	if c == nil {
		return table
	}
	for cat, cfg := range table {
		cls := c.Classify(cat, "")
		if cls.Recoverable {
			continue
		}
		kept := cfg.RetryableCategories[:0:0]
		for _, rc := range cfg.RetryableCategories {
			if rc != cat {
				kept = append(kept, rc)
			}
		}
		cfg.RetryableCategories = kept
		table[cat] = cfg
	}
	return table
}
