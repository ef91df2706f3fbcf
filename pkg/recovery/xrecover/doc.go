// Package xrecover 提供恢复引擎：对任意可失败操作的统一恢复入口。
//
// Engine 把各恢复部件编排为一条流水线：
//
//	解析策略 (xpolicy) → 熔断准入 (xcircuit) → 尝试循环 (xretry)
//	  → 降级 (xfallback) → 结果汇总 (RecoveryResult) → 结果观测上报
//
// 每次调用返回操作值（或终结性错误）与一份 RecoveryResult，记录全部
// 尝试、最终策略、是否触发熔断与降级。自适应调节 (xadaptive) 在后台
// 消费这些结果并回馈策略解析。
//
// # 生命周期
//
// 进程启动时显式构建一个 Engine 并注入到调用方，不提供包级单例；
// 每个测试可持有独立引擎，状态天然隔离。用毕 Close 释放后台资源。
//
// # 错误语义
//
//   - 操作错误按策略重试，重试耗尽后返回最后一次错误
//   - 电路打开且无降级时返回包装了 [ErrCircuitOpen] 的错误
//   - 降级自身的失败是终结性的，原样返回，不再重试
//   - 上下文取消立即中断退避并返回取消错误，已发生的尝试保留在结果中
//
// 示例：
//
//	eng, err := xrecover.New()
//	if err != nil { ... }
//	defer eng.Close()
//
//	value, result, err := xrecover.ExecuteWithRecovery(ctx, eng,
//		xrecover.OpContext{Component: "search", Category: xpolicy.CategoryNetwork},
//		func(ctx context.Context) (string, error) {
//			return client.Query(ctx, q)
//		}, nil)
package xrecover
