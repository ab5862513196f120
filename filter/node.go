package filter

import (
	"context"

	"go.uber.org/zap"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该候选就会被过滤掉。
type FilterNode struct {
	// ID 是 Node 名称，同一 Pipeline 中有多个 FilterNode 时用于区分，默认 "filter.node"
	ID      string
	Filters []Filter
}

// NewCandidateFilter 组合候选过滤的三条规则：自身匹配、缺少标题、标题与已拥有的书重复。
func NewCandidateFilter() *FilterNode {
	return &FilterNode{
		ID:      "filter.candidate",
		Filters: []Filter{SelfMatch{}, MissingTitle{}, NewOwnedTitle()},
	}
}

func (n *FilterNode) Name() string {
	if n.ID != "" {
		return n.ID
	}
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Candidate, 0, len(items))
	dropped := make(map[string]int)

	for _, c := range items {
		if c == nil {
			continue
		}

		reason := ""
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, c)
			if err != nil {
				// 过滤器错误时记录但不中断流程
				rctx.Log().Warn("filter failed", zap.String("filter", f.Name()), zap.Error(err))
				continue
			}
			if ok {
				reason = f.Name()
				break
			}
		}

		if reason != "" {
			dropped[reason]++
			c.PutLabel("filtered", core.Label{Value: "true", Source: reason})
			continue
		}
		out = append(out, c)
	}

	if len(dropped) > 0 {
		rctx.Log().Debug("candidates filtered", zap.Any("dropped", dropped), zap.Int("kept", len(out)))
	}
	return out, nil
}
