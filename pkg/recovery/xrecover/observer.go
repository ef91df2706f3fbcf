package xrecover

import (
	"context"
	"time"

	"github.com/omeyang/xrecover/pkg/recovery/xcircuit"
	"github.com/omeyang/xrecover/pkg/recovery/xpolicy"
	"github.com/omeyang/xrecover/pkg/recovery/xretry"
)

// ResultEvent 一次恢复调用结束时的观测事件。
type ResultEvent struct {
	OperationID    string
	Component      string
	Category       xpolicy.Category
	Duration       time.Duration
	Attempts       int
	FinalStrategy  xretry.Strategy
	Success        bool
	CircuitTripped bool
	FallbackUsed   bool
	// Err 失败时的终结性错误，成功时为 nil。
	Err error
}

// TransitionEvent 熔断器状态迁移事件。
type TransitionEvent struct {
	Key  string
	From xcircuit.State
	To   xcircuit.State
}

// Observer 恢复引擎的观测接口。
// 实现必须可被并发调用，且不得阻塞恢复流水线。
type Observer interface {
	// ObserveResult 上报一次完成的恢复调用。
	ObserveResult(ctx context.Context, ev ResultEvent)
	// ObserveTransition 上报一次熔断器状态迁移。
	ObserveTransition(ctx context.Context, ev TransitionEvent)
}

// NopObserver 空观测实现。
type NopObserver struct{}

func (NopObserver) ObserveResult(context.Context, ResultEvent)         {}
func (NopObserver) ObserveTransition(context.Context, TransitionEvent) {}
