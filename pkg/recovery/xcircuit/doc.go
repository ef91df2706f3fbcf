// Package xcircuit 提供按电路键索引的熔断器注册表。
//
// # 状态机
//
// 每个键对应一个独立的状态机，首次使用时以 CLOSED 创建，永不销毁，
// 只能通过 Reset 显式复位：
//
//	CLOSED    滑动窗口内失败数达到阈值 → OPEN（nextRetry = now + window）
//	OPEN      拒绝所有请求；now >= nextRetry 时转入 HALF_OPEN 并放行唯一探测
//	HALF_OPEN 探测成功数达到阈值 → CLOSED；任一失败 → OPEN（重新计时）
//
// 失败窗口以窗口内首次失败为锚点：窗口外的失败会重置锚点并从 1 重新计数。
//
// # 并发模型
//
// 注册表按 xxhash 分片，同键操作串行（每键一把锁），不同键互不竞争。
// 四类转换操作（准入、记成功、记失败、复位）都是单键原子读改写，
// 并发调用者观察到的状态演进必然一致：同一个 HALF_OPEN 周期内
// 至多一个调用者获得探测资格。
//
// 状态快照（Status）是只读副本，读取不会长时间阻塞写路径。
//
// # 使用约定
//
// 获得探测准入（Admission.Probe 为 true）的调用方必须在操作结束后
// 恰好调用一次 RecordSuccess 或 RecordFailure，否则该键会停留在
// 半开拒绝状态直到下一次复位。
package xcircuit
