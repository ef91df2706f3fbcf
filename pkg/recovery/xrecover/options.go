package xrecover

import (
	"time"

	"github.com/omeyang/xrecover/pkg/recovery/xadaptive"
	"github.com/omeyang/xrecover/pkg/recovery/xcircuit"
	"github.com/omeyang/xrecover/pkg/recovery/xfallback"
	"github.com/omeyang/xrecover/pkg/recovery/xpolicy"
)

// Option 引擎配置选项。
type Option func(*Engine)

// WithResolver 注入策略解析器。
// 注意：引擎不会改写注入解析器的调整来源；需要自适应回馈时，
// 调用方应自行用 xpolicy.WithAdjustmentSource 绑定调节器。
func WithResolver(r *xpolicy.Resolver) Option {
	return func(e *Engine) {
		if r != nil {
			e.resolver = r
		}
	}
}

// WithFallback 注入降级注册表。默认创建空注册表。
func WithFallback(f *xfallback.Resolver) Option {
	return func(e *Engine) {
		if f != nil {
			e.fallback = f
		}
	}
}

// WithTuner 注入外部调节器。引擎不负责其 Close。
func WithTuner(t *xadaptive.Tuner) Option {
	return func(e *Engine) {
		if t != nil {
			e.tuner = t
			e.externalTuner = true
		}
	}
}

// WithoutAdaptive 关闭自适应调节：不创建调节器，也不上报结果。
func WithoutAdaptive() Option {
	return func(e *Engine) {
		e.adaptiveOff = true
	}
}

// WithAdaptiveInterval 设置内建调节器的后台评估周期，默认 30s。
// 对 WithTuner 注入的外部调节器无效。
func WithAdaptiveInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.adaptiveInterval = d
		}
	}
}

// WithCircuitOptions 追加熔断注册表的构建选项（如分片数、时钟）。
// 状态迁移回调由引擎占用，不可经此覆盖。
func WithCircuitOptions(opts ...xcircuit.Option) Option {
	return func(e *Engine) {
		e.circuitOpts = append(e.circuitOpts, opts...)
	}
}

// WithObserver 注入观测实现，默认 NopObserver。
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithLogger 注入日志实现，默认 NopLogger。
func WithLogger(l Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithEngineClock 注入时钟，用于测试耗时与统计窗口。
func WithEngineClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.clock = now
		}
	}
}

// WithStatsCapacity 设置统计留存的调用记录条数，默认 4096。
func WithStatsCapacity(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.statsCapacity = n
		}
	}
}
