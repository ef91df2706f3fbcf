package xretry

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	"time"

	"github.com/omeyang/xrecover/pkg/recovery/xpolicy"
)

// Delay 计算第 attempt 次失败后的退避延迟。
//
//	base  = min(MaxDelay, InitialDelay * BackoffMultiplier^(attempt-1))
//	delay = base * (1 + rand(-1,1) * JitterFactor)
//
// 结果恒在 [0, MaxDelay] 区间内。attempt < 1 按 1 处理。
func Delay(attempt int, cfg xpolicy.RetryConfig) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	base := float64(cfg.InitialDelay) * math.Pow(cfg.BackoffMultiplier, float64(attempt-1))
	if math.IsNaN(base) || base > float64(cfg.MaxDelay) {
		base = float64(cfg.MaxDelay)
	}

	delay := base
	if cfg.JitterFactor > 0 {
		delay *= 1.0 + (randomFloat64()*2-1)*cfg.JitterFactor
	}

	// NaN 安全：attempt 极大时 math.Pow 溢出为 +Inf，与 0 相乘产生 NaN，
	// 而 NaN 的所有比较均为 false，会绕过上限判断。NaN/负数收敛到边界。
	if math.IsNaN(delay) {
		return cfg.MaxDelay
	}
	if delay < 0 {
		return 0
	}
	if delay >= float64(cfg.MaxDelay) {
		return cfg.MaxDelay
	}
	return time.Duration(delay)
}

const (
	floatBits  = 53
	floatScale = 1.0 / (1 << floatBits)
)

// randomFloat64 返回 [0,1) 区间的安全随机数。
// crypto/rand 失败时返回 0（无抖动是安全默认值）。
func randomFloat64() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	return float64(binary.LittleEndian.Uint64(buf[:])>>11) * floatScale
}
