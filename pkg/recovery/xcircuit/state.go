package xcircuit

import (
	"strconv"
	"time"
)

// State 熔断器状态。
type State int32

// 熔断器三态。
const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String 返回状态的可读表示。
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// Config 单个熔断器的运行参数。
// 零值字段在首次使用时落到保守默认值（阈值 5、窗口 60s、半开成功数 1）。
type Config struct {
	// FailureThreshold 滑动窗口内触发熔断的失败次数。
	FailureThreshold int

	// Window 失败计数窗口时长，同时是 OPEN 状态的冷却时长。
	Window time.Duration

	// HalfOpenMaxAttempts 半开状态下关闭电路所需的连续成功次数。
	HalfOpenMaxAttempts int
}

func (c Config) withDefaults() Config {
	if c.FailureThreshold < 1 {
		c.FailureThreshold = 5
	}
	if c.Window <= 0 {
		c.Window = 60 * time.Second
	}
	if c.HalfOpenMaxAttempts < 1 {
		c.HalfOpenMaxAttempts = 1
	}
	return c
}

// Status 某个键的状态快照（不可变副本）。
// 时间字段的零值表示"尚未发生"。
type Status struct {
	Key                 string
	State               State
	FailureCount        int
	FailureThreshold    int
	LastFailureTime     time.Time
	NextRetryTime       time.Time
	SuccessCount        int
	HalfOpenMaxAttempts int
}

// Admission 一次准入判定的结果。
type Admission struct {
	// Allowed 是否放行本次请求。
	Allowed bool

	// Probe 本次放行是否为半开探测（整个半开周期内至多一个调用者得到 true）。
	Probe bool

	// State 判定时刻的状态（判定本身可能触发 OPEN → HALF_OPEN 转换，
	// 此处为转换后的状态）。
	State State

	// RetryAfter 被拒绝时距下次可探测的剩余时长；半开探测占用中为 0。
	RetryAfter time.Duration
}
