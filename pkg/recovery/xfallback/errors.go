package xfallback

import (
	"errors"
	"fmt"
)

var (
	// ErrNilFallback 注册的降级函数为 nil。
	ErrNilFallback = errors.New("xfallback: nil fallback func")

	// ErrEmptyComponent 注册时组件名为空。
	ErrEmptyComponent = errors.New("xfallback: empty component")
)

// FallbackError 降级操作自身执行失败。
// 该错误是终结性的：恢复引擎不会对其重试，也不会继续寻找其他降级。
type FallbackError struct {
	Component string
	Category  string
	Err       error
}

func (e *FallbackError) Error() string {
	return fmt.Sprintf("xfallback: fallback for %s/%s failed: %v", e.Component, e.Category, e.Err)
}

func (e *FallbackError) Unwrap() error { return e.Err }

// IsFallbackError 判断 err 是否为降级操作自身的失败。
func IsFallbackError(err error) bool {
	var fe *FallbackError
	return errors.As(err, &fe)
}
