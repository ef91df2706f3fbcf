// Package xfallback 提供按 (component, category) 注册的降级操作解析器。
//
// 当重试预算耗尽或电路打开时，恢复引擎查询本包以寻找可替代的降级操作：
// 先按 (component, category) 精确匹配，再回退到 component 级默认项，
// 两者都未注册则判定为"无降级可用"。
//
// 设计决策：
//   - 降级只执行一次：成功或失败都终结本次恢复调用，绝不对降级本身重试。
//   - 降级自身的失败以 *FallbackError 包装返回，调用方可与原始错误区分。
//   - 注册表读多写少，使用 sync.RWMutex；注册通常发生在进程启动阶段。
//
// 示例：
//
//	r := xfallback.NewResolver()
//	_ = r.Register("search", xpolicy.CategoryNetwork, func(ctx context.Context, fc xfallback.Context) (any, error) {
//		return cachedResults(fc.Component), nil
//	})
//	value, used, err := r.Attempt(ctx, xfallback.Context{Component: "search", Category: xpolicy.CategoryNetwork, Err: opErr})
package xfallback
