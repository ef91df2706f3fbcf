package xpolicy

import "time"

// AdjustmentType 自适应调整类型。
type AdjustmentType string

// 内置调整类型。
const (
	// AdjustTimeoutIncrease 提升延迟上限（MaxDelay）。
	AdjustTimeoutIncrease AdjustmentType = "timeout_increase"

	// AdjustRetryCount 调整最大尝试次数（MaxAttempts）。
	AdjustRetryCount AdjustmentType = "retry_count_adjust"

	// AdjustBackoff 调整基础退避延迟（InitialDelay）。
	AdjustBackoff AdjustmentType = "backoff_adjust"

	// AdjustStrategyChange 策略变更建议，仅记录，不修改配置。
	AdjustStrategyChange AdjustmentType = "strategy_change"
)

// Adjustment 自适应调节器对某个电路键发出的一条调整（不可变）。
//
// 数值字段统一使用 float64：次数类调整取整数值，
// 延迟类调整以毫秒为单位。
type Adjustment struct {
	Type      AdjustmentType
	OldValue  float64
	NewValue  float64
	Reason    string
	Timestamp time.Time
}

// AdjustmentSource 自适应调整来源接口。
// 由 xadaptive.Tuner 实现；Resolver 在解析时咨询最新调整。
type AdjustmentSource interface {
	// LatestAdjustments 返回某个电路键的调整日志（时间升序）。
	// 无调整时返回 nil。
	LatestAdjustments(key string) []Adjustment
}

// applyAdjustments 将调整日志按序应用到配置副本。
//
// 每种类型只有时间上最后一条生效（日志为升序，顺次覆盖即可）。
// 设计决策: 数值统一做边界收敛而非报错——调整由引擎自身发出，
// 越界只可能来自日志累积，收敛到合法区间比拒绝整次解析更合理。
func applyAdjustments(c RetryConfig, adjs []Adjustment) RetryConfig {
	const maxAttemptsCeiling = 10

	for _, a := range adjs {
		switch a.Type {
		case AdjustRetryCount:
			n := int(a.NewValue)
			if n < 1 {
				n = 1
			}
			if n > maxAttemptsCeiling {
				n = maxAttemptsCeiling
			}
			c.MaxAttempts = n

		case AdjustBackoff:
			d := time.Duration(a.NewValue * float64(time.Millisecond))
			if d < 0 {
				d = 0
			}
			if d > c.MaxDelay {
				d = c.MaxDelay
			}
			c.InitialDelay = d

		case AdjustTimeoutIncrease:
			d := time.Duration(a.NewValue * float64(time.Millisecond))
			if d > c.MaxDelay {
				c.MaxDelay = d
			}

		case AdjustStrategyChange:
			// 仅供学习协作方消费，配置无对应字段。
		}
	}
	return c
}
