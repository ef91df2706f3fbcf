package xcircuit

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const defaultShardCount = 32

// Registry 熔断器注册表。
//
// 注册表独占所有状态机实例，调用方只能拿到 Status 快照。
// 键空间按 xxhash 分片，减少不相关键之间的锁竞争。
type Registry struct {
	shards   []registryShard
	mask     uint64
	now      func() time.Time
	onChange func(key string, from, to State)
}

type registryShard struct {
	mu      sync.RWMutex
	entries map[string]*breaker
}

// Option 注册表配置选项。
type Option func(*Registry)

// WithClock 注入时钟，用于测试。
// nil 会被静默忽略。
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithShardCount 设置分片数，必须是 2 的幂。
// 非法值由 NewRegistry 返回错误。
func WithShardCount(n int) Option {
	return func(r *Registry) {
		r.shards = make([]registryShard, n)
	}
}

// WithOnStateChange 设置状态转换回调。
//
// 回调在键锁之外同步执行，可安全地再次调用注册表方法。
// 可用于日志、告警与指标上报。
func WithOnStateChange(f func(key string, from, to State)) Option {
	return func(r *Registry) {
		r.onChange = f
	}
}

// NewRegistry 创建熔断器注册表。
// 默认 32 个分片、真实时钟、无状态回调。
func NewRegistry(opts ...Option) (*Registry, error) {
	r := &Registry{
		shards: make([]registryShard, defaultShardCount),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	n := len(r.shards)
	if n < 1 || n&(n-1) != 0 {
		return nil, ErrInvalidShardCount
	}
	for i := range r.shards {
		r.shards[i].entries = make(map[string]*breaker)
	}
	r.mask = uint64(n - 1)
	return r, nil
}

func (r *Registry) shard(key string) *registryShard {
	return &r.shards[xxhash.Sum64String(key)&r.mask]
}

// get 返回键对应的状态机，create 为 true 时按需创建（初始 CLOSED）。
func (r *Registry) get(key string, cfg Config, create bool) *breaker {
	s := r.shard(key)

	s.mu.RLock()
	b := s.entries[key]
	s.mu.RUnlock()
	if b != nil || !create {
		return b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b = s.entries[key]; b == nil {
		b = newBreaker(cfg)
		s.entries[key] = b
	}
	return b
}

// Admit 判定键对应的电路是否放行本次请求。
//
// OPEN 且冷却未结束时拒绝；冷却结束时转入 HALF_OPEN 并把唯一的
// 探测名额交给当前调用者（Admission.Probe 为 true）。
// 整个判定是单键原子读改写，并发调用者中至多一个获得探测名额。
func (r *Registry) Admit(key string, cfg Config) Admission {
	b := r.get(key, cfg, true)

	b.mu.Lock()
	adm, tr := b.admit(r.now(), cfg)
	b.mu.Unlock()

	r.notify(key, tr)
	return adm
}

// RecordFailure 记录一次失败完成，返回本次记录是否触发了熔断
// （CLOSED 达到阈值，或半开探测失败重新打开）。
// 键不存在时为无操作（操作前必然先 Admit）。
func (r *Registry) RecordFailure(key string) bool {
	b := r.get(key, Config{}, false)
	if b == nil {
		return false
	}

	b.mu.Lock()
	tripped, tr := b.recordFailure(r.now())
	b.mu.Unlock()

	r.notify(key, tr)
	return tripped
}

// RecordSuccess 记录一次成功完成。
// CLOSED 状态下重置失败窗口；HALF_OPEN 状态下推进探测成功数。
func (r *Registry) RecordSuccess(key string) {
	b := r.get(key, Config{}, false)
	if b == nil {
		return
	}

	b.mu.Lock()
	tr := b.recordSuccess()
	b.mu.Unlock()

	r.notify(key, tr)
}

// Reset 强制复位到 CLOSED，所有计数清零。
// 键不存在时返回 false 且无任何副作用（操作员误用按布尔语义处理，不报错）。
func (r *Registry) Reset(key string) bool {
	b := r.get(key, Config{}, false)
	if b == nil {
		return false
	}

	b.mu.Lock()
	tr := b.reset()
	b.mu.Unlock()

	r.notify(key, tr)
	return true
}

// Status 返回键的状态快照。
// 无中间操作时重复查询返回完全相同的快照。
func (r *Registry) Status(key string) (Status, bool) {
	b := r.get(key, Config{}, false)
	if b == nil {
		return Status{}, false
	}

	b.mu.Lock()
	st := b.snapshot(key)
	b.mu.Unlock()
	return st, true
}

// Statuses 返回所有键的状态快照。
// 逐分片读取，不保证跨分片原子性，适用于健康检查与看板。
func (r *Registry) Statuses() map[string]Status {
	out := make(map[string]Status)
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.RLock()
		breakers := make(map[string]*breaker, len(s.entries))
		for k, b := range s.entries {
			breakers[k] = b
		}
		s.mu.RUnlock()

		for k, b := range breakers {
			b.mu.Lock()
			out[k] = b.snapshot(k)
			b.mu.Unlock()
		}
	}
	return out
}

// Len 返回当前注册的键数量。
func (r *Registry) Len() int {
	n := 0
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}

// notify 在键锁之外触发状态回调。
func (r *Registry) notify(key string, tr *transition) {
	if tr != nil && r.onChange != nil {
		r.onChange(key, tr.from, tr.to)
	}
}
