package xadaptive

import "time"

// Outcome 一次恢复调用的结果摘要，由恢复引擎在调用结束后上报。
type Outcome struct {
	// Success 最终是否成功（含降级成功）。
	Success bool
	// Attempts 实际执行的尝试次数。
	Attempts int
	// TotalTime 整次调用耗时。
	TotalTime time.Duration
	// CircuitTripped 本次调用触发了熔断。
	CircuitTripped bool
	// FallbackUsed 本次调用使用了降级。
	FallbackUsed bool
	// Timestamp 调用结束时刻。
	Timestamp time.Time
}

// ring 定长结果环形缓冲。非并发安全，由 Tuner 持锁访问。
type ring struct {
	buf  []Outcome
	next int
	full bool
}

func newRing(size int) *ring {
	return &ring{buf: make([]Outcome, size)}
}

func (r *ring) add(o Outcome) {
	r.buf[r.next] = o
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
}

func (r *ring) len() int {
	if r.full {
		return len(r.buf)
	}
	return r.next
}

func (r *ring) reset() {
	r.next = 0
	r.full = false
}

// stats 汇总当前窗口内容。
func (r *ring) stats() (samples, successes, trips int) {
	samples = r.len()
	for i := 0; i < samples; i++ {
		o := r.buf[i]
		if o.Success {
			successes++
		}
		if o.CircuitTripped {
			trips++
		}
	}
	return samples, successes, trips
}
