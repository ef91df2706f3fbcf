package xrecover

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/omeyang/xrecover/pkg/recovery/xpolicy"
	"github.com/omeyang/xrecover/pkg/recovery/xretry"
)

// OpContext 一次恢复调用的操作上下文。
type OpContext struct {
	// OperationID 操作标识，留空时自动生成 UUID。
	OperationID string

	// Component 操作所属组件，参与电路键派生与降级解析。
	Component string

	// Category 预期的错误类别，决定默认策略；留空按 unknown 解析。
	Category xpolicy.Category

	// Subcategory 细分类别，可为空。
	Subcategory string

	// CircuitKey 显式电路键。留空时派生为 component:category。
	CircuitKey string
}

// normalize 填充缺省字段，返回最终使用的电路键。
func (oc *OpContext) normalize() string {
	if oc.OperationID == "" {
		oc.OperationID = uuid.NewString()
	}
	if oc.CircuitKey == "" {
		oc.CircuitKey = xpolicy.CircuitKey(oc.Component, oc.Category)
	}
	return oc.CircuitKey
}

// splitCircuitKey 从派生格式的电路键还原 (component, category)。
// 类别不含冒号，因此从最后一个冒号切分；无冒号时视作纯组件键。
func splitCircuitKey(key string) (string, xpolicy.Category) {
	i := strings.LastIndex(key, ":")
	if i < 0 {
		return key, xpolicy.CategoryUnknown
	}
	return key[:i], xpolicy.Category(key[i+1:])
}

// RecoveryResult 一次恢复调用的完整结果，调用结束后不可变。
// 除返回给调用方外，同一份结果也交给观测与自适应协作方消费。
type RecoveryResult struct {
	// OperationID 本次调用的操作标识。
	OperationID string

	// Success 最终是否成功（含降级成功）。
	Success bool

	// Attempts 全部尝试记录，按执行顺序排列。
	Attempts []xretry.Attempt

	// TotalTime 整次调用耗时，含退避睡眠与降级执行。
	TotalTime time.Duration

	// FinalStrategy 决定最终结局的策略。
	// 降级成功时恒为 fallback，即使本次失败触发了熔断；
	// 熔断信号由 CircuitBreakerTriggered 单独携带。
	FinalStrategy xretry.Strategy

	// CircuitBreakerTriggered 本次调用中的失败触发了熔断。
	CircuitBreakerTriggered bool

	// FallbackUsed 本次调用执行了降级（无论降级本身成败）。
	FallbackUsed bool

	// AdaptiveAdjustments 该电路键当前生效的调整日志快照。
	AdaptiveAdjustments []xpolicy.Adjustment
}
