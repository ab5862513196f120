package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rushteam/bookrec/core"
)

// NodeEvent 描述一个 Node 的一次执行。
type NodeEvent struct {
	Name     string
	Kind     Kind
	In       int
	Out      int
	Duration time.Duration
	Err      error
}

// RunEvent 描述一次完整的 Pipeline 执行。
// ShortCircuit 为提前结束时产出零条结果的 Node 名称，未短路时为空。
type RunEvent struct {
	Nodes        int
	Out          int
	Duration     time.Duration
	ShortCircuit string
	Err          error
}

// Hook 观测 Pipeline 执行，不得修改 items。
type Hook interface {
	AfterNode(ctx context.Context, rctx *core.RecommendContext, ev NodeEvent)
	AfterRun(ctx context.Context, rctx *core.RecommendContext, ev RunEvent)
}

// LogHook 把阶段切换写入 rctx 上的 zap logger。
type LogHook struct{}

func (LogHook) AfterNode(_ context.Context, rctx *core.RecommendContext, ev NodeEvent) {
	fields := []zap.Field{
		zap.String("stage", ev.Name),
		zap.String("kind", string(ev.Kind)),
		zap.Int("in", ev.In),
		zap.Int("out", ev.Out),
		zap.Duration("duration", ev.Duration),
	}
	if ev.Err != nil {
		rctx.Log().Error("stage failed", append(fields, zap.Error(ev.Err))...)
		return
	}
	rctx.Log().Debug("stage done", fields...)
}

func (LogHook) AfterRun(_ context.Context, rctx *core.RecommendContext, ev RunEvent) {
	if ev.ShortCircuit != "" {
		rctx.Log().Info("pipeline short-circuited",
			zap.String("stage", ev.ShortCircuit),
			zap.Duration("duration", ev.Duration),
		)
		return
	}
	rctx.Log().Debug("pipeline done",
		zap.Int("nodes", ev.Nodes),
		zap.Int("out", ev.Out),
		zap.Duration("duration", ev.Duration),
	)
}
