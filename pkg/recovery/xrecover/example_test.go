package xrecover_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/omeyang/xrecover/pkg/recovery/xfallback"
	"github.com/omeyang/xrecover/pkg/recovery/xpolicy"
	"github.com/omeyang/xrecover/pkg/recovery/xrecover"
	"github.com/omeyang/xrecover/pkg/recovery/xretry"
)

func ExampleExecuteWithRecovery() {
	eng, err := xrecover.New(xrecover.WithoutAdaptive())
	if err != nil {
		panic(err)
	}
	defer eng.Close()

	initial := time.Millisecond
	jitter := 0.0
	calls := 0

	value, result, err := xrecover.ExecuteWithRecovery(context.Background(), eng,
		xrecover.OpContext{Component: "search", Category: xpolicy.CategoryNetwork},
		func(ctx context.Context) (string, error) {
			calls++
			if calls == 1 {
				return "", xretry.NewClassified(errors.New("connection refused"), xpolicy.CategoryNetwork, "")
			}
			return "results", nil
		},
		&xpolicy.Override{InitialDelay: &initial, JitterFactor: &jitter})
	if err != nil {
		panic(err)
	}

	fmt.Println(value, result.Success, len(result.Attempts))
	// Output: results true 2
}

func ExampleEngine_Fallbacks() {
	eng, err := xrecover.New(xrecover.WithoutAdaptive())
	if err != nil {
		panic(err)
	}
	defer eng.Close()

	// 主操作失败后以缓存结果降级
	_ = eng.Fallbacks().Register("search", xpolicy.CategoryNetwork,
		func(ctx context.Context, fc xfallback.Context) (any, error) {
			return "cached", nil
		})

	attempts := 1
	value, result, err := eng.Execute(context.Background(),
		xrecover.OpContext{Component: "search", Category: xpolicy.CategoryNetwork},
		func(ctx context.Context) (any, error) {
			return nil, xretry.NewClassified(errors.New("unreachable"), xpolicy.CategoryNetwork, "")
		},
		&xpolicy.Override{MaxAttempts: &attempts})
	if err != nil {
		panic(err)
	}

	fmt.Println(value, result.FallbackUsed)
	// Output: cached true
}
