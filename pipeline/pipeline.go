package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/bookrec/core"
)

// Pipeline 把推荐逻辑拆成可组合的 Node 链，严格按顺序执行，每个 Node 只执行一次。
// 任一 Node 产出零条结果时立即返回空列表，后续 Node 不再执行。
type Pipeline struct {
	Nodes []Node
	Hooks []Hook
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	start := time.Now()
	cur := items
	ran := 0
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			p.afterRun(ctx, rctx, RunEvent{Nodes: ran, Duration: time.Since(start), Err: err})
			return nil, err
		}

		in := len(cur)
		t := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		ran++
		p.afterNode(ctx, rctx, NodeEvent{
			Name:     node.Name(),
			Kind:     node.Kind(),
			In:       in,
			Out:      len(next),
			Duration: time.Since(t),
			Err:      err,
		})
		if err != nil {
			err = fmt.Errorf("node %s: %w", node.Name(), err)
			p.afterRun(ctx, rctx, RunEvent{Nodes: ran, Duration: time.Since(start), Err: err})
			return nil, err
		}
		if len(next) == 0 {
			rctx.PutLabel("short_circuit", core.Label{Value: node.Name(), Source: string(node.Kind())})
			p.afterRun(ctx, rctx, RunEvent{Nodes: ran, Duration: time.Since(start), ShortCircuit: node.Name()})
			return nil, nil
		}
		cur = next
	}
	p.afterRun(ctx, rctx, RunEvent{Nodes: ran, Out: len(cur), Duration: time.Since(start)})
	return cur, nil
}

func (p *Pipeline) afterNode(ctx context.Context, rctx *core.RecommendContext, ev NodeEvent) {
	for _, h := range p.Hooks {
		h.AfterNode(ctx, rctx, ev)
	}
}

func (p *Pipeline) afterRun(ctx context.Context, rctx *core.RecommendContext, ev RunEvent) {
	for _, h := range p.Hooks {
		h.AfterRun(ctx, rctx, ev)
	}
}
