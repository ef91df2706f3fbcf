package xcircuit

import "errors"

var (
	// ErrOpenState 电路处于打开状态，请求未被执行。
	// 与被包装操作自身的错误可区分，上层可据此采用不同的降级策略。
	ErrOpenState = errors.New("xcircuit: circuit breaker is open")

	// ErrInvalidShardCount 分片数不是 2 的幂。
	ErrInvalidShardCount = errors.New("xcircuit: shard count must be a power of two")
)

// IsOpen 判断错误是否由电路打开导致。
func IsOpen(err error) bool {
	return errors.Is(err, ErrOpenState)
}
