// Package xretry 提供恢复引擎的重试调度：退避计算、重试判定与尝试循环。
//
// # 设计理念
//
//   - Delay：指数退避 + 对称抖动，任何输入下不超过 MaxDelay、不为负
//   - ShouldRetry：按 (category, subcategory) 与尝试次数判定重试资格，
//     不可重试类别在首次尝试即快速失败（这是设计行为，不是缺陷）
//   - Scheduler：驱动尝试循环，每次尝试先经过熔断注册表准入，
//     结果按完成顺序记回注册表
//
// 底层使用 [avast/retry-go/v5] 驱动循环：退避睡眠不持有任何熔断器锁，
// 上下文取消会立即中断睡眠并以取消错误结束（已发生的尝试仍被完整上报）。
//
// # 错误分类
//
// 引擎只消费错误上的 (category, subcategory) 标注：
//   - NewClassified(err, category, subcategory)：附加分类
//   - Classify(err)：提取分类，未标注时归为 unknown
//   - 实现 Retryable() bool 的错误可以短路重试判定
//
// [avast/retry-go/v5]: https://github.com/avast/retry-go
package xretry
