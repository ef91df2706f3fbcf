package xcircuit

import (
	"sync"
	"time"
)

// transition 一次状态转换记录，用于在释放键锁之后触发回调。
type transition struct {
	from, to State
}

// breaker 单个键的状态机。
// 所有方法必须在持有 mu 的情况下调用（registry 负责加锁）。
type breaker struct {
	mu sync.Mutex

	cfg          Config
	state        State
	failureCount int
	windowStart  time.Time
	lastFailure  time.Time
	nextRetry    time.Time
	successCount int
	probing      bool
}

func newBreaker(cfg Config) *breaker {
	return &breaker{cfg: cfg.withDefaults(), state: StateClosed}
}

// admit 判定是否放行，并在冷却结束时执行 OPEN → HALF_OPEN 转换。
func (b *breaker) admit(now time.Time, cfg Config) (Admission, *transition) {
	// 每次准入刷新配置，让自适应调整后的阈值对后续计数生效。
	b.cfg = cfg.withDefaults()

	switch b.state {
	case StateClosed:
		return Admission{Allowed: true, State: StateClosed}, nil

	case StateOpen:
		if now.Before(b.nextRetry) {
			return Admission{State: StateOpen, RetryAfter: b.nextRetry.Sub(now)}, nil
		}
		// 冷却结束，转入半开并把唯一的探测名额交给当前调用者。
		b.state = StateHalfOpen
		b.successCount = 0
		b.probing = true
		return Admission{Allowed: true, Probe: true, State: StateHalfOpen},
			&transition{from: StateOpen, to: StateHalfOpen}

	case StateHalfOpen:
		if b.probing {
			return Admission{State: StateHalfOpen}, nil
		}
		b.probing = true
		return Admission{Allowed: true, Probe: true, State: StateHalfOpen}, nil

	default:
		return Admission{State: b.state}, nil
	}
}

// recordFailure 记录一次失败，返回是否发生了向 OPEN 的转换。
func (b *breaker) recordFailure(now time.Time) (bool, *transition) {
	b.lastFailure = now

	switch b.state {
	case StateClosed:
		// 窗口以首次失败为锚点；窗口外的失败重置锚点并从 1 重新计数。
		if b.windowStart.IsZero() || now.Sub(b.windowStart) > b.cfg.Window {
			b.windowStart = now
			b.failureCount = 1
		} else {
			b.failureCount++
		}
		if b.failureCount >= b.cfg.FailureThreshold {
			b.state = StateOpen
			b.nextRetry = now.Add(b.cfg.Window)
			return true, &transition{from: StateClosed, to: StateOpen}
		}
		return false, nil

	case StateHalfOpen:
		// 探测失败立即重新打开，探测名额作废，冷却重新计时。
		b.state = StateOpen
		b.nextRetry = now.Add(b.cfg.Window)
		b.successCount = 0
		b.probing = false
		return true, &transition{from: StateHalfOpen, to: StateOpen}

	default:
		// OPEN 状态下的迟到失败（准入在转换前发生）不参与计数。
		return false, nil
	}
}

// recordSuccess 记录一次成功。
func (b *breaker) recordSuccess() *transition {
	switch b.state {
	case StateClosed:
		// 成功重置失败窗口。
		b.failureCount = 0
		b.windowStart = time.Time{}
		return nil

	case StateHalfOpen:
		b.successCount++
		b.probing = false
		if b.successCount >= b.cfg.HalfOpenMaxAttempts {
			b.toClosed()
			return &transition{from: StateHalfOpen, to: StateClosed}
		}
		return nil

	default:
		// OPEN 状态下的迟到成功不改变状态。
		return nil
	}
}

// reset 强制复位到 CLOSED，所有计数清零。
func (b *breaker) reset() *transition {
	from := b.state
	b.toClosed()
	b.lastFailure = time.Time{}
	if from != StateClosed {
		return &transition{from: from, to: StateClosed}
	}
	return nil
}

func (b *breaker) toClosed() {
	b.state = StateClosed
	b.failureCount = 0
	b.successCount = 0
	b.windowStart = time.Time{}
	b.nextRetry = time.Time{}
	b.probing = false
}

// snapshot 生成只读快照。
func (b *breaker) snapshot(key string) Status {
	return Status{
		Key:                 key,
		State:               b.state,
		FailureCount:        b.failureCount,
		FailureThreshold:    b.cfg.FailureThreshold,
		LastFailureTime:     b.lastFailure,
		NextRetryTime:       b.nextRetry,
		SuccessCount:        b.successCount,
		HalfOpenMaxAttempts: b.cfg.HalfOpenMaxAttempts,
	}
}
