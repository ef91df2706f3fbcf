// Package xpolicy 提供重试策略配置的定义、默认表与解析能力。
//
// # 设计理念
//
// xpolicy 是恢复引擎的配置层：
//   - RetryConfig：不可变的重试策略值对象，按错误类别（Category）配置
//   - Resolver：按 (component, category) 解析生效配置，
//     合并顺序为 类别默认值 → 调用方覆盖（Override）→ 自适应调整（Adjustment）
//   - Loader：基于 [knadh/koanf] 从 YAML/JSON 加载策略表
//
// # 解析规则
//
// Resolve 是对当前自适应状态的纯函数：相同输入（策略表、覆盖、调整日志）
// 必然产生相同输出，无任何副作用。自适应调整仅在 AdaptiveAdjustment
// 开启时生效，且始终以最新一条同类型调整为准。
//
// # 电路键
//
// 同一个 (component, category) 对共享一个电路键（CircuitKey），
// 熔断状态与自适应调整日志均以该键索引。
//
// [knadh/koanf]: https://github.com/knadh/koanf
package xpolicy
