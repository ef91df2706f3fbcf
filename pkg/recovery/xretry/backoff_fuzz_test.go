package xretry

import (
	"testing"
	"time"

	"github.com/omeyang/xrecover/pkg/recovery/xpolicy"
)

// FuzzDelay 验证任意输入下延迟恒在 [0, MaxDelay] 区间内。
func FuzzDelay(f *testing.F) {
	f.Add(1, int64(100), int64(10000), 2.0, 0.1)
	f.Add(100, int64(0), int64(0), 1.0, 0.0)
	f.Add(1<<30, int64(1), int64(1<<40), 100.0, 1.0)
	f.Add(-7, int64(-50), int64(3000), 0.5, 2.0)

	f.Fuzz(func(t *testing.T, attempt int, initialMs, maxMs int64, multiplier, jitter float64) {
		cfg := xpolicy.RetryConfig{
			InitialDelay:      time.Duration(initialMs) * time.Millisecond,
			MaxDelay:          time.Duration(maxMs) * time.Millisecond,
			BackoffMultiplier: multiplier,
			JitterFactor:      jitter,
		}

		d := Delay(attempt, cfg)
		if d < 0 {
			t.Fatalf("negative delay %v for attempt=%d cfg=%+v", d, attempt, cfg)
		}
		if cfg.MaxDelay >= 0 && d > cfg.MaxDelay {
			t.Fatalf("delay %v exceeds max %v for attempt=%d", d, cfg.MaxDelay, attempt)
		}
	})
}
