// Package recovery 提供恢复引擎相关的子包。
//
// 子包列表：
//   - xpolicy: 重试策略解析，类别默认表、覆盖合并与自适应调整应用
//   - xcircuit: 按电路键分片的熔断器注册表
//   - xretry: 退避计算与尝试循环调度
//   - xfallback: 按 (组件, 类别) 注册的降级解析器
//   - xadaptive: 基于结果观测的自适应调节器
//   - xrecover: 恢复引擎，组合以上部件的统一入口
//
// 设计原则：
//   - 状态进程内自有，显式构建与注入，不设包级单例
//   - 每个电路键独立加锁，退避睡眠不持有任何锁
//   - 终结性错误绝不吞掉，调用方总能拿到值或单一错误
package recovery
