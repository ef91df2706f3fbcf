package xadaptive

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/omeyang/xrecover/pkg/recovery/xpolicy"
)

const (
	defaultMaxKeys     = 1024
	defaultWindowSize  = 64
	defaultMinSamples  = 5
	defaultEvalEvery   = 10
	defaultMaxAdjusts  = 32
	maxAttemptsCeiling = 10

	lowSuccessRatio = 0.5
	tripThreshold   = 2
	backoffFactor   = 1.5
)

// BaselineFunc 返回某个电路键未经调整的基线配置。
// 调节器据此计算调整的旧值与边界。
// 在该键状态锁持有下被调用，实现不得回调 Tuner 自身
// （如经由启用自适应调整的 Resolve），否则同键死锁。
type BaselineFunc func(key string) xpolicy.RetryConfig

// keyState 单个电路键的观测窗口与调整日志，由自身的互斥锁串行化。
type keyState struct {
	mu       sync.Mutex
	window   *ring
	adjusts  []xpolicy.Adjustment
	recorded int // 自上次评估以来累计的结果数
}

// Tuner 自适应调节器。实现 xpolicy.AdjustmentSource。
//
// 并发安全。键集合由 LRU 约束上限，被逐出的键视同从未观测过。
// 全局锁只覆盖 LRU 的查找与插入，窗口与调整日志按键各自加锁，
// 不同电路键的上报互不阻塞。
type Tuner struct {
	mu     sync.Mutex // 仅保护 states 本身
	states *lru.Cache[string, *keyState]

	baseline   BaselineFunc
	windowSize int
	minSamples int
	evalEvery  int
	maxAdjusts int
	clock      func() time.Time

	interval time.Duration
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// TunerOption 调节器配置选项。
type TunerOption func(*Tuner)

// WithMaxKeys 设置可同时跟踪的电路键上限，默认 1024。
func WithMaxKeys(n int) TunerOption {
	return func(t *Tuner) {
		if n > 0 {
			c, _ := lru.New[string, *keyState](n)
			t.states = c
		}
	}
}

// WithWindowSize 设置每键结果窗口长度，默认 64。
func WithWindowSize(n int) TunerOption {
	return func(t *Tuner) {
		if n > 0 {
			t.windowSize = n
		}
	}
}

// WithMinSamples 设置触发成功率策略的最小样本数，默认 5。
func WithMinSamples(n int) TunerOption {
	return func(t *Tuner) {
		if n > 0 {
			t.minSamples = n
		}
	}
}

// WithEvalEvery 设置每键累计多少条结果后同步评估一次，默认 10。
func WithEvalEvery(n int) TunerOption {
	return func(t *Tuner) {
		if n > 0 {
			t.evalEvery = n
		}
	}
}

// WithInterval 设置后台全量评估周期；零值关闭后台扫描。默认关闭。
func WithInterval(d time.Duration) TunerOption {
	return func(t *Tuner) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithTunerClock 注入时钟，用于测试调整时间戳。
func WithTunerClock(now func() time.Time) TunerOption {
	return func(t *Tuner) {
		if now != nil {
			t.clock = now
		}
	}
}

// NewTuner 创建调节器。baseline 不得为 nil。
// 配置了 WithInterval 时同时启动后台扫描 goroutine，用毕必须 Close。
func NewTuner(baseline BaselineFunc, opts ...TunerOption) *Tuner {
	states, _ := lru.New[string, *keyState](defaultMaxKeys)
	t := &Tuner{
		states:     states,
		baseline:   baseline,
		windowSize: defaultWindowSize,
		minSamples: defaultMinSamples,
		evalEvery:  defaultEvalEvery,
		maxAdjusts: defaultMaxAdjusts,
		clock:      time.Now,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	if t.interval > 0 {
		t.wg.Add(1)
		go t.loop()
	}
	return t
}

// Close 停止后台扫描并等待其退出。可重复调用。
func (t *Tuner) Close() {
	t.once.Do(func() {
		close(t.done)
	})
	t.wg.Wait()
}

func (t *Tuner) loop() {
	defer t.wg.Done()
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.EvaluateAll()
		}
	}
}

// Record 上报一次恢复调用的结果。
// 每键累计满 evalEvery 条后同步运行一次策略评估。
func (t *Tuner) Record(key string, o Outcome) {
	if key == "" {
		return
	}
	if o.Timestamp.IsZero() {
		o.Timestamp = t.clock()
	}

	t.mu.Lock()
	st, ok := t.states.Get(key)
	if !ok {
		st = &keyState{window: newRing(t.windowSize)}
		t.states.Add(key, st)
	}
	t.mu.Unlock()

	st.mu.Lock()
	defer st.mu.Unlock()
	st.window.add(o)
	st.recorded++
	if st.recorded >= t.evalEvery {
		st.recorded = 0
		t.evaluateLocked(key, st)
	}
}

// EvaluateAll 对所有在册键运行一次策略评估。
func (t *Tuner) EvaluateAll() {
	for _, key := range t.snapshot() {
		t.mu.Lock()
		st, ok := t.states.Peek(key)
		t.mu.Unlock()
		if !ok {
			continue
		}
		st.mu.Lock()
		t.evaluateLocked(key, st)
		st.mu.Unlock()
	}
}

// snapshot 返回当前在册键的副本，供无锁遍历。
func (t *Tuner) snapshot() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.states.Keys()
}

// LatestAdjustments 返回某个键的调整日志（时间升序）副本。
// 实现 xpolicy.AdjustmentSource。
func (t *Tuner) LatestAdjustments(key string) []xpolicy.Adjustment {
	t.mu.Lock()
	st, ok := t.states.Peek(key)
	t.mu.Unlock()
	if !ok {
		return nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.adjusts) == 0 {
		return nil
	}
	out := make([]xpolicy.Adjustment, len(st.adjusts))
	copy(out, st.adjusts)
	return out
}

// TotalAdjustments 返回所有在册键的调整条目总数。
func (t *Tuner) TotalAdjustments() int {
	var n int
	for _, key := range t.snapshot() {
		t.mu.Lock()
		st, ok := t.states.Peek(key)
		t.mu.Unlock()
		if !ok {
			continue
		}
		st.mu.Lock()
		n += len(st.adjusts)
		st.mu.Unlock()
	}
	return n
}

// evaluateLocked 在 st.mu 持有下对单键运行确定性策略。
// 发出调整后清空窗口，开启新的观测期。
func (t *Tuner) evaluateLocked(key string, st *keyState) {
	samples, successes, trips := st.window.stats()
	if samples == 0 {
		return
	}

	base := t.baseline(key)
	now := t.clock()
	var emitted bool

	if samples >= t.minSamples && float64(successes)/float64(samples) < lowSuccessRatio {
		cur := t.effectiveAttempts(st, base)
		if cur < maxAttemptsCeiling {
			t.appendLocked(st, xpolicy.Adjustment{
				Type:      xpolicy.AdjustRetryCount,
				OldValue:  float64(cur),
				NewValue:  float64(cur + 1),
				Reason:    "low success ratio",
				Timestamp: now,
			})
			emitted = true
		}
	}

	if trips > tripThreshold {
		cur := t.effectiveInitialDelay(st, base)
		next := time.Duration(float64(cur) * backoffFactor)
		if next > base.MaxDelay {
			next = base.MaxDelay
		}
		if next > cur {
			t.appendLocked(st, xpolicy.Adjustment{
				Type:      xpolicy.AdjustBackoff,
				OldValue:  durationMs(cur),
				NewValue:  durationMs(next),
				Reason:    "repeated circuit trips",
				Timestamp: now,
			})
			emitted = true
		}
	}

	if emitted {
		st.window.reset()
	}
}

// effectiveAttempts 取该键当前生效的 MaxAttempts：
// 日志中最后一条 retry_count_adjust 的新值，否则取基线。
func (t *Tuner) effectiveAttempts(st *keyState, base xpolicy.RetryConfig) int {
	for i := len(st.adjusts) - 1; i >= 0; i-- {
		if st.adjusts[i].Type == xpolicy.AdjustRetryCount {
			return int(st.adjusts[i].NewValue)
		}
	}
	return base.MaxAttempts
}

func (t *Tuner) effectiveInitialDelay(st *keyState, base xpolicy.RetryConfig) time.Duration {
	for i := len(st.adjusts) - 1; i >= 0; i-- {
		if st.adjusts[i].Type == xpolicy.AdjustBackoff {
			return time.Duration(st.adjusts[i].NewValue * float64(time.Millisecond))
		}
	}
	return base.InitialDelay
}

// appendLocked 追加调整，日志超限时丢弃最旧的一条。
func (t *Tuner) appendLocked(st *keyState, a xpolicy.Adjustment) {
	st.adjusts = append(st.adjusts, a)
	if len(st.adjusts) > t.maxAdjusts {
		st.adjusts = st.adjusts[1:]
	}
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
