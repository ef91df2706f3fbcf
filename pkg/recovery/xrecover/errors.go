package xrecover

import (
	"errors"

	"github.com/omeyang/xrecover/pkg/recovery/xcircuit"
)

var (
	// ErrCircuitOpen 电路打开且无可用降级，操作未被执行。
	// 与 xcircuit.ErrOpenState 是同一哨兵，errors.Is 在整条链路上一致。
	ErrCircuitOpen = xcircuit.ErrOpenState

	// ErrNilOperation 传入的操作为 nil。
	ErrNilOperation = errors.New("xrecover: nil operation")

	// ErrValueType 降级返回值与泛型结果类型不匹配。
	ErrValueType = errors.New("xrecover: fallback value type mismatch")
)

// IsCircuitOpen 判断 err 是否因电路打开而产生。
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}
