package xrecover

import (
	"sync"
	"time"
)

const defaultStatsCapacity = 4096

// Statistics 某个时间窗口内的恢复运行统计。
type Statistics struct {
	// Window 统计覆盖的时间窗口；零值表示覆盖全部留存记录。
	Window time.Duration
	// TotalOperations 完成的恢复调用总数。
	TotalOperations int
	// SuccessfulOperations 最终成功（含降级成功）的调用数。
	SuccessfulOperations int
	// RetriedOperations 实际发生过重试（尝试数 > 1）的调用数。
	RetriedOperations int
	// CircuitBreakerTrips 触发熔断的调用数。
	CircuitBreakerTrips int
	// FallbackUses 执行了降级的调用数。
	FallbackUses int
	// AvgAttemptsPerOperation 平均每次调用的尝试数。
	AvgAttemptsPerOperation float64
	// AdaptiveAdjustments 当前在册的自适应调整条目总数（不随窗口过滤）。
	AdaptiveAdjustments int
}

// statsRecord 单次调用的统计切片。
type statsRecord struct {
	at       time.Time
	attempts int
	success  bool
	tripped  bool
	fallback bool
}

// statsRecorder 环形留存最近 capacity 条调用记录。
// 统计是近似值：超出容量的旧记录被覆盖，即使仍落在查询窗口内。
type statsRecorder struct {
	mu      sync.Mutex
	records []statsRecord
	next    int
	full    bool
	clock   func() time.Time
}

func newStatsRecorder(capacity int, clock func() time.Time) *statsRecorder {
	if capacity <= 0 {
		capacity = defaultStatsCapacity
	}
	return &statsRecorder{records: make([]statsRecord, capacity), clock: clock}
}

func (s *statsRecorder) record(r statsRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[s.next] = r
	s.next++
	if s.next == len(s.records) {
		s.next = 0
		s.full = true
	}
}

// snapshot 汇总窗口内的记录。window <= 0 时覆盖全部留存记录。
func (s *statsRecorder) snapshot(window time.Duration) Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cutoff time.Time
	if window > 0 {
		cutoff = s.clock().Add(-window)
	}

	n := s.next
	if s.full {
		n = len(s.records)
	}

	st := Statistics{Window: window}
	var attempts int
	for i := 0; i < n; i++ {
		r := s.records[i]
		if !cutoff.IsZero() && r.at.Before(cutoff) {
			continue
		}
		st.TotalOperations++
		attempts += r.attempts
		if r.success {
			st.SuccessfulOperations++
		}
		if r.attempts > 1 {
			st.RetriedOperations++
		}
		if r.tripped {
			st.CircuitBreakerTrips++
		}
		if r.fallback {
			st.FallbackUses++
		}
	}
	if st.TotalOperations > 0 {
		st.AvgAttemptsPerOperation = float64(attempts) / float64(st.TotalOperations)
	}
	return st
}
