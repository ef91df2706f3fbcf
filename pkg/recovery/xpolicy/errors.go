package xpolicy

import "errors"

// 配置与加载错误。
var (
	// ErrInvalidConfig 策略配置不满足不变量。
	ErrInvalidConfig = errors.New("xpolicy: invalid retry config")

	// ErrUnsupportedFormat 不支持的策略表格式。
	ErrUnsupportedFormat = errors.New("xpolicy: unsupported format")

	// ErrLoadFailed 策略表加载失败。
	ErrLoadFailed = errors.New("xpolicy: load policy table failed")
)
