// Package bookrec 是基于内容的图书推荐引擎。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑通过 Node 串联（Recall → Filter → Rank → ReRank → PostProcess）
// - 无状态：每次调用重新构建语料、TF-IDF 空间、画像与随机源，Engine 可并发使用
// - 降级即取值：评分缺失、空语料、零画像等情况走默认值并记录日志，Recommend 不返回 error
// - 查表数据（版本标记、罗马字映射、类别关键词）外置为可版本化的 YAML
package bookrec

import "github.com/rushteam/bookrec/pipeline"

// 轻量 facade：便于直接 import "bookrec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind
type Hook = pipeline.Hook

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
