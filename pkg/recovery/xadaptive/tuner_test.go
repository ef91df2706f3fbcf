package xadaptive

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/omeyang/xrecover/pkg/recovery/xpolicy"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testBaseline(key string) xpolicy.RetryConfig {
	return xpolicy.RetryConfig{
		MaxAttempts:       3,
		InitialDelay:      100 * time.Millisecond,
		MaxDelay:          10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

func failedOutcome() Outcome {
	return Outcome{Success: false, Attempts: 3, TotalTime: time.Second}
}

func okOutcome() Outcome {
	return Outcome{Success: true, Attempts: 1, TotalTime: 10 * time.Millisecond}
}

func TestTuner_LowSuccessRatioRaisesAttempts(t *testing.T) {
	tn := NewTuner(testBaseline, WithEvalEvery(10), WithMinSamples(5))
	defer tn.Close()

	// 10 条结果：3 成功 7 失败，成功率 0.3 < 0.5
	for i := 0; i < 3; i++ {
		tn.Record("api:network", okOutcome())
	}
	for i := 0; i < 7; i++ {
		tn.Record("api:network", failedOutcome())
	}

	adjs := tn.LatestAdjustments("api:network")
	require.Len(t, adjs, 1)
	assert.Equal(t, xpolicy.AdjustRetryCount, adjs[0].Type)
	assert.Equal(t, float64(3), adjs[0].OldValue)
	assert.Equal(t, float64(4), adjs[0].NewValue)
	assert.Equal(t, "low success ratio", adjs[0].Reason)
	assert.False(t, adjs[0].Timestamp.IsZero())

	// 其他键不受影响
	assert.Nil(t, tn.LatestAdjustments("other:network"))
}

func TestTuner_AttemptsCeiling(t *testing.T) {
	tn := NewTuner(testBaseline, WithEvalEvery(5), WithMinSamples(5))
	defer tn.Close()

	// 反复评估，逐次 +1 直到上限 10 后不再发出
	for round := 0; round < 12; round++ {
		for i := 0; i < 5; i++ {
			tn.Record("k", failedOutcome())
		}
	}

	adjs := tn.LatestAdjustments("k")
	require.NotEmpty(t, adjs)
	last := adjs[len(adjs)-1]
	assert.Equal(t, float64(10), last.NewValue)
	// 基线 3 → 10，恰好 7 条
	assert.Len(t, adjs, 7)
}

func TestTuner_RepeatedTripsRaiseBackoff(t *testing.T) {
	tn := NewTuner(testBaseline, WithEvalEvery(4), WithMinSamples(100))
	defer tn.Close()

	for i := 0; i < 4; i++ {
		o := okOutcome()
		o.CircuitTripped = true
		tn.Record("k", o)
	}

	adjs := tn.LatestAdjustments("k")
	require.Len(t, adjs, 1)
	assert.Equal(t, xpolicy.AdjustBackoff, adjs[0].Type)
	assert.Equal(t, float64(100), adjs[0].OldValue)
	assert.Equal(t, float64(150), adjs[0].NewValue)
	assert.Equal(t, "repeated circuit trips", adjs[0].Reason)
}

func TestTuner_BackoffCappedAtMaxDelay(t *testing.T) {
	baseline := func(string) xpolicy.RetryConfig {
		return xpolicy.RetryConfig{
			MaxAttempts:       3,
			InitialDelay:      90 * time.Millisecond,
			MaxDelay:          100 * time.Millisecond,
			BackoffMultiplier: 2.0,
		}
	}
	tn := NewTuner(baseline, WithEvalEvery(4), WithMinSamples(100))
	defer tn.Close()

	trip := func() {
		for i := 0; i < 4; i++ {
			o := okOutcome()
			o.CircuitTripped = true
			tn.Record("k", o)
		}
	}

	trip()
	adjs := tn.LatestAdjustments("k")
	require.Len(t, adjs, 1)
	assert.Equal(t, float64(100), adjs[0].NewValue)

	// 已到上限，后续不再发出
	trip()
	assert.Len(t, tn.LatestAdjustments("k"), 1)
}

func TestTuner_FeedsResolver(t *testing.T) {
	// 调节器基线与解析器策略表保持一致
	baseline := func(string) xpolicy.RetryConfig {
		return xpolicy.DefaultTable()[xpolicy.CategoryNetwork]
	}
	tn := NewTuner(baseline, WithEvalEvery(10), WithMinSamples(5))
	defer tn.Close()

	r := xpolicy.NewResolver(xpolicy.WithAdjustmentSource(tn))

	key := xpolicy.CircuitKey("api", xpolicy.CategoryNetwork)
	before := r.Resolve("api", xpolicy.CategoryNetwork, nil)

	for i := 0; i < 10; i++ {
		tn.Record(key, failedOutcome())
	}

	after := r.Resolve("api", xpolicy.CategoryNetwork, nil)
	assert.Equal(t, before.MaxAttempts+1, after.MaxAttempts)
}

func TestTuner_BackgroundPass(t *testing.T) {
	tn := NewTuner(testBaseline,
		WithInterval(10*time.Millisecond),
		WithEvalEvery(1000), // 只靠后台扫描触发
		WithMinSamples(5),
	)

	for i := 0; i < 6; i++ {
		tn.Record("k", failedOutcome())
	}

	require.Eventually(t, func() bool {
		return len(tn.LatestAdjustments("k")) > 0
	}, 2*time.Second, 5*time.Millisecond)

	tn.Close()
	tn.Close() // 幂等
}

func TestTuner_KeySetBounded(t *testing.T) {
	tn := NewTuner(testBaseline, WithMaxKeys(8), WithEvalEvery(1), WithMinSamples(1))
	defer tn.Close()

	for i := 0; i < 64; i++ {
		tn.Record(fmt.Sprintf("k-%d", i), failedOutcome())
	}

	// 早期键被逐出，其调整日志随之丢弃
	assert.Nil(t, tn.LatestAdjustments("k-0"))
	assert.NotEmpty(t, tn.LatestAdjustments("k-63"))
}

func TestTuner_ConcurrentKeysIndependent(t *testing.T) {
	tn := NewTuner(testBaseline, WithEvalEvery(10), WithMinSamples(5))
	defer tn.Close()

	const keys = 8
	var wg sync.WaitGroup
	for i := 0; i < keys; i++ {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				tn.Record(key, failedOutcome())
			}
		}(fmt.Sprintf("svc-%d:network", i))
	}
	wg.Wait()

	// 每个键独立评估出恰好一条调整
	for i := 0; i < keys; i++ {
		adjs := tn.LatestAdjustments(fmt.Sprintf("svc-%d:network", i))
		require.Len(t, adjs, 1)
		assert.Equal(t, xpolicy.AdjustRetryCount, adjs[0].Type)
	}
	assert.Equal(t, keys, tn.TotalAdjustments())
}

func TestTuner_EmptyKeyIgnored(t *testing.T) {
	tn := NewTuner(testBaseline, WithEvalEvery(1), WithMinSamples(1))
	defer tn.Close()
	tn.Record("", failedOutcome())
	assert.Zero(t, tn.TotalAdjustments())
}
