package xfallback

import (
	"context"
	"sync"

	"github.com/omeyang/xrecover/pkg/recovery/xpolicy"
)

// Func 降级操作。接收失败上下文，返回替代值或自身的失败。
type Func func(ctx context.Context, fc Context) (any, error)

// Context 降级解析与执行所需的失败上下文。
type Context struct {
	// Component 失败操作所属组件。
	Component string
	// Category 失败的错误类别。
	Category xpolicy.Category
	// Subcategory 细分类别，可为空。
	Subcategory string
	// Err 触发降级的原始（或最后一次）操作错误。
	Err error
}

// Resolver 降级注册表。零值不可用，必须经 NewResolver 创建。
// 并发安全：注册与查询可被任意 goroutine 交错调用。
type Resolver struct {
	mu       sync.RWMutex
	exact    map[string]Func // key: component + ":" + category
	defaults map[string]Func // key: component
}

// NewResolver 创建空的降级注册表。
func NewResolver() *Resolver {
	return &Resolver{
		exact:    make(map[string]Func),
		defaults: make(map[string]Func),
	}
}

// Register 注册 (component, category) 精确匹配的降级操作。
// 重复注册覆盖旧项。
func (r *Resolver) Register(component string, category xpolicy.Category, fn Func) error {
	if component == "" {
		return ErrEmptyComponent
	}
	if fn == nil {
		return ErrNilFallback
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exact[exactKey(component, category)] = fn
	return nil
}

// RegisterDefault 注册组件级默认降级，精确匹配未命中时使用。
func (r *Resolver) RegisterDefault(component string, fn Func) error {
	if component == "" {
		return ErrEmptyComponent
	}
	if fn == nil {
		return ErrNilFallback
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaults[component] = fn
	return nil
}

// Unregister 移除精确匹配项，返回该项此前是否存在。
func (r *Resolver) Unregister(component string, category xpolicy.Category) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := exactKey(component, category)
	_, ok := r.exact[key]
	delete(r.exact, key)
	return ok
}

// Lookup 按链路解析降级操作：精确匹配 → 组件默认 → 无。
func (r *Resolver) Lookup(component string, category xpolicy.Category) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if fn, ok := r.exact[exactKey(component, category)]; ok {
		return fn, true
	}
	if fn, ok := r.defaults[component]; ok {
		return fn, true
	}
	return nil, false
}

// Attempt 解析并执行一次降级操作。
//
// 返回值语义：
//   - used=false：未注册任何可用降级，value 与 err 均为零值
//   - used=true, err=nil：降级成功，value 为替代结果
//   - used=true, err!=nil：降级自身失败，err 为 *FallbackError
//
// 降级只执行一次，不论成败都不再重试。
func (r *Resolver) Attempt(ctx context.Context, fc Context) (any, bool, error) {
	fn, ok := r.Lookup(fc.Component, fc.Category)
	if !ok {
		return nil, false, nil
	}
	value, err := fn(ctx, fc)
	if err != nil {
		return nil, true, &FallbackError{
			Component: fc.Component,
			Category:  string(fc.Category),
			Err:       err,
		}
	}
	return value, true, nil
}

// Len 返回已注册项总数（精确匹配 + 组件默认）。
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.exact) + len(r.defaults)
}

func exactKey(component string, category xpolicy.Category) string {
	return component + ":" + string(category)
}
