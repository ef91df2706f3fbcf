// Package xadaptive 提供基于结果观测的自适应调节器。
//
// 调节器按电路键记录每次恢复调用的结果摘要（成败、尝试次数、耗时、
// 是否触发熔断），在有界窗口上运行确定性策略并发出配置调整：
//
//   - 窗口内成功率 < 0.5 且样本数达标 ⇒ retry_count_adjust，
//     MaxAttempts+1（上限 10）
//   - 窗口内熔断触发 > 2 次 ⇒ backoff_adjust，InitialDelay ×1.5
//     （不超过 MaxDelay）
//
// 每条调整追加到对应键的调整日志，经 xpolicy.AdjustmentSource 接口
// 即刻对后续 Resolve 可见。评估在两个时机发生：每键累计满 N 条结果
// 的同步触发，以及后台 time.Ticker 的周期全量扫描（Close 停止）。
//
// 设计决策：
//   - 键集合用 hashicorp/golang-lru/v2 约束上限，冷键被逐出后其
//     历史与调整日志一并丢弃，保证任意键基数下内存有界。
//   - 每键结果窗口为定长环形缓冲，发出调整后清空，开启新的观测期，
//     避免同一批样本反复触发同一条调整。
//   - 策略是纯函数：相同窗口内容必然得到相同的调整序列。
package xadaptive
