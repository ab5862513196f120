package pipeline

import (
	"context"

	"github.com/rushteam/bookrec/core"
)

// Kind 用于标记 Node 类型，方便观测与按阶段打点。
type Kind string

const (
	KindRecall      Kind = "recall"      // 召回阶段：构建语料、向量空间并按相似度生成候选
	KindFilter      Kind = "filter"      // 过滤阶段：剔除已拥有、无标题、同系列的候选
	KindRank        Kind = "rank"        // 排序阶段：混合打分并排序
	KindReRank      Kind = "rerank"      // 重排阶段：类别多样性选择
	KindPostProcess Kind = "postprocess" // 后处理阶段：推荐理由与输出格式
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用“输入 items -> 输出 items”的形态。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Candidate,
	) ([]*core.Candidate, error)
}
