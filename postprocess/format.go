// Package postprocess 负责最终结果的修饰：推荐理由与对外输出结构。
package postprocess

import (
	"context"

	"go.uber.org/zap"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/dsl"
	"github.com/rushteam/bookrec/text"
)

// Explain 按规则为每个候选生成推荐理由，写入 Candidate.Reason。
// 规则编译或执行失败时视为未命中并记录 warn 日志。
type Explain struct {
	Rules       *dsl.Ruleset
	Categorizer *text.Categorizer
}

// NewExplain 编译规则；rules 为空时使用 dsl.DefaultRules。
func NewExplain(rules []dsl.Rule) *Explain {
	if len(rules) == 0 {
		rules = dsl.DefaultRules()
	}
	return &Explain{Rules: dsl.NewRuleset(rules), Categorizer: text.NewCategorizer(nil)}
}

func (n *Explain) Name() string        { return "postprocess.format" }
func (n *Explain) Kind() pipeline.Kind { return pipeline.KindPostProcess }

func (n *Explain) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	rules := n.Rules
	if rules == nil {
		rules = dsl.NewRuleset(dsl.DefaultRules())
	}
	for expr, err := range rules.Broken {
		rctx.Log().Warn("reason rule disabled", zap.String("expr", expr), zap.Error(err))
	}

	for _, c := range items {
		if c == nil {
			continue
		}
		if c.Category == "" && n.Categorizer != nil {
			c.Category = n.Categorizer.Estimate(c.Book.Title, c.Book.Description)
		}
		reason, errs := rules.Reason(c)
		for _, err := range errs {
			rctx.Log().Warn("reason rule failed", zap.Int("index", c.Index), zap.Error(err))
		}
		c.Reason = reason
	}
	return items, nil
}

// ToRecommendation 把候选映射为对外输出结构。
func ToRecommendation(c *core.Candidate) core.Recommendation {
	authors := c.Book.Authors
	if authors == nil {
		authors = []string{}
	}
	reason := c.Reason
	if reason == "" {
		reason = dsl.FallbackReason
	}
	return core.Recommendation{
		Title:           c.Book.Title,
		Authors:         authors,
		Description:     c.Book.Description,
		Image:           c.Book.Image,
		Rating:          c.Book.DisplayRating(),
		ExternalID:      c.Book.ExternalID,
		SimilarityScore: c.Similarity,
		HybridScore:     c.Hybrid,
		Category:        c.Category,
		Reason:          reason,
		SignalBreakdown: c.Signals,
	}
}

// Format 按顺序映射全部候选；输入为空时返回空切片（非 nil）。
func Format(items []*core.Candidate) []core.Recommendation {
	out := make([]core.Recommendation, 0, len(items))
	for _, c := range items {
		if c == nil {
			continue
		}
		out = append(out, ToRecommendation(c))
	}
	return out
}
