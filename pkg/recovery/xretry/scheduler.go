package xretry

import (
	"context"
	"time"

	retry "github.com/avast/retry-go/v5"

	"github.com/omeyang/xrecover/pkg/recovery/xcircuit"
	"github.com/omeyang/xrecover/pkg/recovery/xpolicy"
)

// CircuitGate 熔断注册表的消费侧接口，由 *xcircuit.Registry 实现。
type CircuitGate interface {
	Admit(key string, cfg xcircuit.Config) xcircuit.Admission
	RecordFailure(key string) bool
	RecordSuccess(key string)
}

// Operation 被包装的可失败操作。
// 引擎不对操作施加超时，超时由调用方在 ctx 或操作内部自理。
type Operation func(ctx context.Context) (any, error)

// Outcome 一次尝试循环的完整结果。
// Attempts 为追加式日志，循环结束后不再修改。
type Outcome struct {
	// Success 是否在某次尝试中成功。
	Success bool

	// Value 成功时操作的返回值。
	Value any

	// Err 失败时的最后一个操作错误；电路打开未执行时为 CircuitOpenError；
	// 取消时为 ctx 错误。成功时为 nil。
	Err error

	// Attempts 实际执行过的尝试记录（电路直接拒绝时可能为空）。
	Attempts []Attempt

	// CircuitTripped 本次调用中的某次失败触发了熔断。
	CircuitTripped bool

	// CircuitOpen 循环因电路打开而终止（含一开始就被拒绝的情形）。
	CircuitOpen bool

	// Cancelled 循环因上下文取消而终止。
	Cancelled bool
}

// ShouldRetry 判定一次失败之后是否还应重试。
//
// 以下任一条件成立即返回 false：
//   - attempt >= cfg.MaxAttempts（尝试预算用尽）
//   - 电路处于 OPEN 状态
//   - 错误类别不在可重试集合且子类别也不在可重试集合
//
// 实现 RetryableError 的错误以 Retryable() 短路（如 PermanentError）。
func ShouldRetry(err error, attempt int, cfg xpolicy.RetryConfig, state xcircuit.State) bool {
	if err == nil {
		return false
	}
	if attempt >= cfg.MaxAttempts {
		return false
	}
	if state == xcircuit.StateOpen {
		return false
	}
	if !IsRetryable(err) {
		return false
	}
	cat, sub := Classify(err)
	if !cfg.RetryableCategory(cat) && !cfg.RetryableSubcategory(sub) {
		return false
	}
	return true
}

// Scheduler 尝试循环调度器。
//
// 每次尝试先经过熔断注册表准入；结果按完成顺序记回注册表；
// 退避睡眠期间不持有任何锁。一个 Scheduler 可被任意多个调用并发使用。
type Scheduler struct {
	gate  CircuitGate
	clock func() time.Time
}

// SchedulerOption 调度器配置选项。
type SchedulerOption func(*Scheduler)

// WithClock 注入时钟，用于测试尝试记录的时间戳。
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		if now != nil {
			s.clock = now
		}
	}
}

// NewScheduler 创建调度器。gate 不得为 nil。
func NewScheduler(gate CircuitGate, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{gate: gate, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Run 执行尝试循环。
//
// 流程（对单次调用顺序执行，尝试之间退避睡眠）：
//  1. 熔断准入；被拒绝时以 CircuitOpenError 终止（交由上层降级）
//  2. 执行操作；成功立即记回注册表并结束
//  3. 失败记录 Attempt 并记回注册表（可能触发熔断）
//  4. ShouldRetry 为 true 时按 Delay 退避后继续，否则终止
//
// 退避期间上下文取消立即中断并以取消结果返回，已发生的尝试保留。
func (s *Scheduler) Run(ctx context.Context, key string, cfg xpolicy.RetryConfig, op Operation) *Outcome {
	out := &Outcome{}
	gateCfg := xcircuit.Config{
		FailureThreshold:    cfg.CircuitBreakerThreshold,
		Window:              cfg.CircuitBreakerWindow,
		HalfOpenMaxAttempts: cfg.HalfOpenMaxAttempts,
	}

	var (
		attemptNo    int
		pendingDelay time.Duration
	)

	err := retry.New(
		retry.Context(ctx),
		retry.Attempts(safeIntToUint(cfg.MaxAttempts)),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, _ error, _ retry.DelayContext) time.Duration {
			// retry-go 的 n 从 1 开始，与 Delay 的 attempt 语义一致。
			d := Delay(safeUintToInt(n), cfg)
			pendingDelay = d
			return d
		}),
		retry.RetryIf(func(err error) bool {
			// 本次失败已把电路推到 OPEN 时不再退避，直接交由上层降级。
			state := xcircuit.StateClosed
			if out.CircuitTripped {
				state = xcircuit.StateOpen
			}
			return ShouldRetry(err, attemptNo, cfg, state)
		}),
	).Do(func() error {
		adm := s.gate.Admit(key, gateCfg)
		if !adm.Allowed {
			out.CircuitOpen = true
			return &CircuitOpenError{Key: key, State: adm.State, RetryAfter: adm.RetryAfter}
		}

		attemptNo++
		att := Attempt{
			Number:    attemptNo,
			StartTime: s.clock(),
			Delay:     pendingDelay,
			Strategy:  StrategyNone,
		}
		if attemptNo > 1 {
			att.Strategy = StrategyRetry
		}

		value, opErr := op(ctx)
		att.EndTime = s.clock()

		if opErr == nil {
			att.Success = true
			out.Attempts = append(out.Attempts, att)
			out.Success = true
			out.Value = value
			s.gate.RecordSuccess(key)
			return nil
		}

		att.Err = opErr
		out.Attempts = append(out.Attempts, att)
		if s.gate.RecordFailure(key) {
			out.CircuitTripped = true
		}
		return opErr
	})

	if out.Success {
		return out
	}

	out.Err = err
	if ctxErr := ctx.Err(); ctxErr != nil {
		out.Cancelled = true
		out.Err = ctxErr
	}
	return out
}

// safeIntToUint 将 int 安全转换为 uint（负数归零）。
func safeIntToUint(n int) uint {
	if n <= 0 {
		return 0
	}
	return uint(n)
}

// safeUintToInt 将 uint 安全转换为 int（上溢截断）。
func safeUintToInt(n uint) int {
	const maxInt = int(^uint(0) >> 1)
	if n > uint(maxInt) {
		return maxInt
	}
	return int(n)
}
