package xrecover

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	defaultInstrumentationName = "github.com/omeyang/xrecover/xrecover"

	metricRecoveryTotal    = "xrecover.recovery.total"
	metricRecoveryDuration = "xrecover.recovery.duration"
	metricRecoveryAttempts = "xrecover.recovery.attempts"
	metricFallbackTotal    = "xrecover.fallback.total"
	metricTransitionTotal  = "xrecover.circuit.transition.total"

	statusOK    = "ok"
	statusError = "error"
)

type otelConfig struct {
	instrumentationName string
	meterProvider       metric.MeterProvider
}

// OTelOption OTel Observer 的配置选项。
type OTelOption func(*otelConfig)

// WithInstrumentationName 设置 instrumentation 名称。
func WithInstrumentationName(name string) OTelOption {
	return func(cfg *otelConfig) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

// WithMeterProvider 设置 MeterProvider，默认取全局 Provider。
func WithMeterProvider(provider metric.MeterProvider) OTelOption {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

// NewOTelObserver 创建基于 OpenTelemetry 指标的 Observer。
func NewOTelObserver(opts ...OTelOption) (Observer, error) {
	cfg := &otelConfig{
		instrumentationName: defaultInstrumentationName,
		meterProvider:       otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	meter := cfg.meterProvider.Meter(cfg.instrumentationName)

	total, err := meter.Int64Counter(
		metricRecoveryTotal,
		metric.WithDescription("completed recovery calls"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xrecover: create counter failed: %w", err)
	}

	duration, err := meter.Float64Histogram(
		metricRecoveryDuration,
		metric.WithDescription("recovery call duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("xrecover: create histogram failed: %w", err)
	}

	attempts, err := meter.Int64Histogram(
		metricRecoveryAttempts,
		metric.WithDescription("attempts per recovery call"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xrecover: create histogram failed: %w", err)
	}

	fallbacks, err := meter.Int64Counter(
		metricFallbackTotal,
		metric.WithDescription("fallback executions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xrecover: create counter failed: %w", err)
	}

	transitions, err := meter.Int64Counter(
		metricTransitionTotal,
		metric.WithDescription("circuit breaker state transitions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xrecover: create counter failed: %w", err)
	}

	return &otelObserver{
		total:       total,
		duration:    duration,
		attempts:    attempts,
		fallbacks:   fallbacks,
		transitions: transitions,
	}, nil
}

type otelObserver struct {
	total       metric.Int64Counter
	duration    metric.Float64Histogram
	attempts    metric.Int64Histogram
	fallbacks   metric.Int64Counter
	transitions metric.Int64Counter
}

// ObserveResult 上报一次完成的恢复调用。
//
// 使用不可取消的 context 记录指标：请求 context 已取消的失败场景
// 恰恰是最需要被观测到的。
func (o *otelObserver) ObserveResult(ctx context.Context, ev ResultEvent) {
	ctx = context.WithoutCancel(ctx)

	status := statusOK
	if !ev.Success {
		status = statusError
	}
	attrs := metric.WithAttributes(
		attribute.String("component", componentOrUnknown(ev.Component)),
		attribute.String("category", string(ev.Category)),
		attribute.String("strategy", string(ev.FinalStrategy)),
		attribute.String("status", status),
	)

	o.total.Add(ctx, 1, attrs)
	o.duration.Record(ctx, ev.Duration.Seconds(), attrs)
	o.attempts.Record(ctx, int64(ev.Attempts), attrs)

	if ev.FallbackUsed {
		o.fallbacks.Add(ctx, 1, metric.WithAttributes(
			attribute.String("component", componentOrUnknown(ev.Component)),
			attribute.String("category", string(ev.Category)),
			attribute.String("status", status),
		))
	}
}

// ObserveTransition 上报一次熔断器状态迁移。
func (o *otelObserver) ObserveTransition(ctx context.Context, ev TransitionEvent) {
	o.transitions.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(
		attribute.String("key", ev.Key),
		attribute.String("from", ev.From.String()),
		attribute.String("to", ev.To.String()),
	))
}

func componentOrUnknown(component string) string {
	if component == "" {
		return "unknown"
	}
	return component
}
