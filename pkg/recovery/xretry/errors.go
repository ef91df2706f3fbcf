package xretry

import (
	"errors"
	"fmt"
	"time"

	"github.com/omeyang/xrecover/pkg/recovery/xcircuit"
	"github.com/omeyang/xrecover/pkg/recovery/xpolicy"
)

// RetryableError 可重试错误接口。
// 实现此接口的错误可以短路基于类别的重试判定。
type RetryableError interface {
	error
	Retryable() bool
}

// ClassifiedError 携带错误分类的包装类型。
//
// 分类由外部的错误分类器产出，引擎按 (Category, Subcategory)
// 对照策略配置的可重试集合决定是否重试。
type ClassifiedError struct {
	Err         error
	Category    xpolicy.Category
	Subcategory string
}

// NewClassified 为错误附加分类。
// err 为 nil 时返回 nil。
func NewClassified(err error, category xpolicy.Category, subcategory string) *ClassifiedError {
	if err == nil {
		return nil
	}
	return &ClassifiedError{Err: err, Category: category, Subcategory: subcategory}
}

func (e *ClassifiedError) Error() string {
	if e.Subcategory != "" {
		return fmt.Sprintf("%s/%s: %v", e.Category, e.Subcategory, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Category, e.Err)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// Classify 提取错误的分类。
// 错误链中无 ClassifiedError 时归为 (CategoryUnknown, "")。
func Classify(err error) (xpolicy.Category, string) {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Category, ce.Subcategory
	}
	return xpolicy.CategoryUnknown, ""
}

// PermanentError 永久性错误（不应重试），无论类别配置如何。
type PermanentError struct {
	Err error
}

// NewPermanent 标记错误为永久性。
func NewPermanent(err error) *PermanentError {
	return &PermanentError{Err: err}
}

func (e *PermanentError) Error() string {
	if e.Err == nil {
		return "permanent error"
	}
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error { return e.Err }

// Retryable 实现 RetryableError 接口。
func (e *PermanentError) Retryable() bool { return false }

// CircuitOpenError 电路打开导致请求未被执行。
//
// 包装 [xcircuit.ErrOpenState]，与被包装操作自身的错误可区分，
// 上层可据此采用不同的 UX 或更高层退避。
// 实现 Retryable() 返回 false：电路打开时继续退避重试没有意义，
// 应当立即走降级路径。
type CircuitOpenError struct {
	Key        string
	State      xcircuit.State
	RetryAfter time.Duration
}

func (e *CircuitOpenError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("circuit %s: %v", e.Key, xcircuit.ErrOpenState)
	}
	return xcircuit.ErrOpenState.Error()
}

// Unwrap 让 errors.Is(err, xcircuit.ErrOpenState) 成立。
func (e *CircuitOpenError) Unwrap() error { return xcircuit.ErrOpenState }

// Retryable 实现 RetryableError 接口。
func (e *CircuitOpenError) Retryable() bool { return false }

// IsCircuitOpen 判断错误是否由电路打开导致。
func IsCircuitOpen(err error) bool {
	return errors.Is(err, xcircuit.ErrOpenState)
}

// IsRetryable 检查错误是否可重试。
// 规则：
//   - nil：视为成功，不需要重试
//   - 实现 RetryableError 接口：以 Retryable() 为准
//   - 其他错误：默认可重试（再交由类别判定过滤）
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var re RetryableError
	if errors.As(err, &re) {
		return re.Retryable()
	}
	return true
}
