package xrecover

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/omeyang/xrecover/pkg/recovery/xadaptive"
	"github.com/omeyang/xrecover/pkg/recovery/xcircuit"
	"github.com/omeyang/xrecover/pkg/recovery/xfallback"
	"github.com/omeyang/xrecover/pkg/recovery/xpolicy"
	"github.com/omeyang/xrecover/pkg/recovery/xretry"
)

const (
	defaultAdaptiveInterval = 30 * time.Second
	keyMetaSize             = 1024
)

// opIdentity 自定义电路键背后实际生效的 (组件, 类别)。
type opIdentity struct {
	component string
	category  xpolicy.Category
}

// Operation 被恢复引擎包装的可失败操作。
// 需要类别判定的错误应以 xretry.NewClassified 包装，
// 未分类的错误按 unknown 类别处理。
type Operation = xretry.Operation

// Engine 恢复引擎。一个进程通常只构建一个实例并注入到各调用方。
// 所有方法并发安全。
type Engine struct {
	resolver  *xpolicy.Resolver
	registry  *xcircuit.Registry
	scheduler *xretry.Scheduler
	fallback  *xfallback.Resolver
	tuner     *xadaptive.Tuner
	observer  Observer
	logger    Logger
	stats     *statsRecorder
	clock     func() time.Time
	keyMeta   *lru.Cache[string, opIdentity]

	externalTuner    bool
	adaptiveOff      bool
	adaptiveInterval time.Duration
	statsCapacity    int
	circuitOpts      []xcircuit.Option
}

// New 创建恢复引擎。
//
// 默认配置：内建策略表、内建熔断注册表、空降级注册表、
// 开启自适应调节（后台评估周期 30s）、Nop 观测与日志。
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		observer:         NopObserver{},
		logger:           NopLogger{},
		clock:            time.Now,
		adaptiveInterval: defaultAdaptiveInterval,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	if e.fallback == nil {
		e.fallback = xfallback.NewResolver()
	}
	e.keyMeta, _ = lru.New[string, opIdentity](keyMetaSize)
	if e.tuner == nil && !e.adaptiveOff {
		e.tuner = xadaptive.NewTuner(e.baseline, xadaptive.WithInterval(e.adaptiveInterval))
	}
	if e.resolver == nil {
		var resolverOpts []xpolicy.ResolverOption
		if e.tuner != nil {
			resolverOpts = append(resolverOpts, xpolicy.WithAdjustmentSource(e.tuner))
		}
		e.resolver = xpolicy.NewResolver(resolverOpts...)
	}

	circuitOpts := append(e.circuitOpts, xcircuit.WithOnStateChange(e.onTransition))
	registry, err := xcircuit.NewRegistry(circuitOpts...)
	if err != nil {
		e.closeOwned()
		return nil, fmt.Errorf("xrecover: build circuit registry: %w", err)
	}
	e.registry = registry
	e.scheduler = xretry.NewScheduler(registry)
	e.stats = newStatsRecorder(e.statsCapacity, e.clock)
	return e, nil
}

// Close 释放引擎持有的后台资源。可重复调用。
// 经 WithTuner 注入的外部调节器不在此关闭。
func (e *Engine) Close() {
	e.closeOwned()
}

func (e *Engine) closeOwned() {
	if e.tuner != nil && !e.externalTuner {
		e.tuner.Close()
	}
}

// baseline 返回某个电路键未经调整的基线配置，供调节器计算旧值。
// 自定义键优先按调用时登记的 (组件, 类别) 解析，与调用实际使用的
// 配置保持一致；派生键直接从键名还原。
// 显式关闭自适应覆盖，避免解析时回调调节器。
func (e *Engine) baseline(key string) xpolicy.RetryConfig {
	component, category := splitCircuitKey(key)
	if id, ok := e.keyMeta.Get(key); ok {
		component, category = id.component, id.category
	}
	off := false
	return e.resolver.Resolve(component, category, &xpolicy.Override{AdaptiveAdjustment: &off})
}

// onTransition 熔断状态迁移回调。在键锁之外被调用。
func (e *Engine) onTransition(key string, from, to xcircuit.State) {
	ctx := context.Background()
	e.observer.ObserveTransition(ctx, TransitionEvent{Key: key, From: from, To: to})
	e.logger.Warn(ctx, "circuit state changed",
		slog.String("key", key),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
	)
}

// Execute 对操作执行一次完整的恢复调用。
//
// 返回操作（或降级）的结果值、完整的 RecoveryResult 以及终结性错误。
// RecoveryResult 恒非 nil（除非 op 为 nil），无论成败都可用于观测消费。
func (e *Engine) Execute(ctx context.Context, octx OpContext, op Operation, ov *xpolicy.Override) (any, *RecoveryResult, error) {
	if op == nil {
		return nil, nil, ErrNilOperation
	}

	key := octx.normalize()
	if key != xpolicy.CircuitKey(octx.Component, octx.Category) {
		e.keyMeta.Add(key, opIdentity{component: octx.Component, category: octx.Category})
	}
	cfg := e.resolver.Resolve(octx.Component, octx.Category, ov)
	start := e.clock()

	out := e.scheduler.Run(ctx, key, cfg, op)

	res := &RecoveryResult{
		OperationID:             octx.OperationID,
		Attempts:                out.Attempts,
		CircuitBreakerTriggered: out.CircuitTripped,
	}

	var value any
	var err error
	switch {
	case out.Success:
		res.Success = true
		value = out.Value
		res.FinalStrategy = xretry.StrategyNone
		if len(out.Attempts) > 1 {
			res.FinalStrategy = xretry.StrategyRetry
		}

	case out.Cancelled:
		// 取消是调用方的决定，不触发降级。
		err = out.Err
		res.FinalStrategy = failureStrategy(out)

	default:
		value, err = e.runFallback(ctx, octx, out, res)
	}

	res.TotalTime = e.clock().Sub(start)
	e.finish(ctx, octx, key, res, err)
	if !res.Success {
		value = nil
	}
	return value, res, err
}

// runFallback 在重试耗尽或电路打开后尝试降级。
func (e *Engine) runFallback(ctx context.Context, octx OpContext, out *xretry.Outcome, res *RecoveryResult) (any, error) {
	category, subcategory := octx.Category, octx.Subcategory
	if cat, sub := xretry.Classify(out.Err); cat != xpolicy.CategoryUnknown {
		category, subcategory = cat, sub
	}

	value, used, fbErr := e.fallback.Attempt(ctx, xfallback.Context{
		Component:   octx.Component,
		Category:    category,
		Subcategory: subcategory,
		Err:         out.Err,
	})
	res.FallbackUsed = used

	switch {
	case used && fbErr == nil:
		res.Success = true
		res.FinalStrategy = xretry.StrategyFallback
		return value, nil
	case used:
		// 降级自身失败是终结性的。
		res.FinalStrategy = failureStrategy(out)
		return nil, fbErr
	default:
		res.FinalStrategy = failureStrategy(out)
		return nil, out.Err
	}
}

// failureStrategy 归类失败结局的决定性策略：
// 熔断路径优先，发生过重试的按重试耗尽计，单次尝试即终止的为快速失败。
func failureStrategy(out *xretry.Outcome) xretry.Strategy {
	switch {
	case out.CircuitOpen || out.CircuitTripped:
		return xretry.StrategyCircuitBreak
	case len(out.Attempts) > 1:
		return xretry.StrategyRetry
	default:
		return xretry.StrategyFailFast
	}
}

// finish 完成一次调用的收尾上报：统计、调节器、观测与日志。
func (e *Engine) finish(ctx context.Context, octx OpContext, key string, res *RecoveryResult, err error) {
	e.stats.record(statsRecord{
		at:       e.clock(),
		attempts: len(res.Attempts),
		success:  res.Success,
		tripped:  res.CircuitBreakerTriggered,
		fallback: res.FallbackUsed,
	})

	if e.tuner != nil {
		e.tuner.Record(key, xadaptive.Outcome{
			Success:        res.Success,
			Attempts:       len(res.Attempts),
			TotalTime:      res.TotalTime,
			CircuitTripped: res.CircuitBreakerTriggered,
			FallbackUsed:   res.FallbackUsed,
			Timestamp:      e.clock(),
		})
		res.AdaptiveAdjustments = e.tuner.LatestAdjustments(key)
	}

	e.observer.ObserveResult(ctx, ResultEvent{
		OperationID:    octx.OperationID,
		Component:      octx.Component,
		Category:       octx.Category,
		Duration:       res.TotalTime,
		Attempts:       len(res.Attempts),
		FinalStrategy:  res.FinalStrategy,
		Success:        res.Success,
		CircuitTripped: res.CircuitBreakerTriggered,
		FallbackUsed:   res.FallbackUsed,
		Err:            err,
	})

	attrs := []slog.Attr{
		slog.String("operation_id", octx.OperationID),
		slog.String("key", key),
		slog.String("strategy", string(res.FinalStrategy)),
		slog.Int("attempts", len(res.Attempts)),
		slog.Duration("total_time", res.TotalTime),
	}
	if res.FallbackUsed {
		attrs = append(attrs, slog.Bool("fallback", true))
	}
	if res.Success {
		e.logger.Debug(ctx, "recovery succeeded", attrs...)
		return
	}
	attrs = append(attrs, slog.Any("error", err))
	e.logger.Warn(ctx, "recovery failed", attrs...)
}

// ResetCircuitBreaker 强制某个电路键回到 CLOSED 并清零计数。
// 键不存在时返回 false。
func (e *Engine) ResetCircuitBreaker(key string) bool {
	return e.registry.Reset(key)
}

// CircuitBreakerStatus 查询单个电路键的状态快照。
func (e *Engine) CircuitBreakerStatus(key string) (xcircuit.Status, bool) {
	return e.registry.Status(key)
}

// CircuitBreakerStatuses 查询全部电路键的状态快照。
func (e *Engine) CircuitBreakerStatuses() map[string]xcircuit.Status {
	return e.registry.Statuses()
}

// Fallbacks 返回降级注册表，供调用方注册降级操作。
func (e *Engine) Fallbacks() *xfallback.Resolver {
	return e.fallback
}

// Policies 返回策略解析器，供调用方替换策略表。
func (e *Engine) Policies() *xpolicy.Resolver {
	return e.resolver
}

// RecoveryStatistics 汇总最近 window 内完成调用的运行统计。
// window <= 0 时覆盖全部留存记录。
func (e *Engine) RecoveryStatistics(window time.Duration) Statistics {
	st := e.stats.snapshot(window)
	if e.tuner != nil {
		st.AdaptiveAdjustments = e.tuner.TotalAdjustments()
	}
	return st
}

// ExecuteWithRecovery 是 Engine.Execute 的泛型封装，返回具体类型的结果值。
// 降级返回值与 T 不匹配时以 [ErrValueType] 失败。
func ExecuteWithRecovery[T any](ctx context.Context, e *Engine, octx OpContext, op func(ctx context.Context) (T, error), ov *xpolicy.Override) (T, *RecoveryResult, error) {
	var zero T
	if op == nil {
		return zero, nil, ErrNilOperation
	}

	value, res, err := e.Execute(ctx, octx, func(ctx context.Context) (any, error) {
		return op(ctx)
	}, ov)
	if err != nil || !res.Success {
		return zero, res, err
	}

	typed, ok := value.(T)
	if !ok && value != nil {
		res.Success = false
		return zero, res, fmt.Errorf("%w: got %T", ErrValueType, value)
	}
	return typed, res, nil
}
