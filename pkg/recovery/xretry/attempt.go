package xretry

import "time"

// Strategy 恢复策略标识。
type Strategy string

// 内置恢复策略。
const (
	// StrategyNone 首次尝试，未动用任何恢复手段。
	StrategyNone Strategy = "none"

	// StrategyRetry 退避重试。
	StrategyRetry Strategy = "retry"

	// StrategyFallback 降级替代。
	StrategyFallback Strategy = "fallback"

	// StrategyCircuitBreak 熔断快速失败。
	StrategyCircuitBreak Strategy = "circuit_break"

	// StrategyFailFast 不可重试类别的首次快速失败。
	StrategyFailFast Strategy = "fail_fast"
)

// Attempt 一次尝试的只读记录（追加式日志条目，产生后不再修改）。
type Attempt struct {
	// Number 尝试序号，从 1 开始。
	Number int

	// StartTime 操作开始时刻。
	StartTime time.Time

	// EndTime 操作结束时刻。
	EndTime time.Time

	// Delay 本次尝试之前经历的退避延迟（首次尝试为 0）。
	Delay time.Duration

	// Success 本次尝试是否成功。
	Success bool

	// Err 本次尝试的错误，成功时为 nil。
	Err error

	// Strategy 驱动本次尝试的策略。
	Strategy Strategy
}
