package rerank

import (
	"context"
	"math"
	"slices"

	"go.uber.org/zap"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/rank"
	"github.com/rushteam/bookrec/text"
)

// DefaultRequestedCount 是默认输出条数。
const DefaultRequestedCount = 10

// Diversity 按类别均衡地选出最终结果。
//
// 类别顺序取混合排序后首次出现的顺序，每个类别最多取 ceil(RequestedCount/类别数) 本，
// 均衡阶段最多填满 ceil(RequestedCount*DiversityFactor) 个位置，剩余位置按全局顺序补齐。
// 以 Randomness 的概率（且剩余 >= 2 本时）跳过当前最优、改取次优。
// 标题键重复的候选永远不会被选中。结果按混合分重新排序。
type Diversity struct {
	RequestedCount  int
	DiversityFactor float64
	Randomness      float64

	Categorizer *text.Categorizer
	Normalizer  *text.Normalizer
}

func NewDiversity(requestedCount int) *Diversity {
	return &Diversity{
		RequestedCount:  requestedCount,
		DiversityFactor: 1,
		Categorizer:     text.NewCategorizer(nil),
		Normalizer:      text.NewNormalizer(nil),
	}
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	count := n.RequestedCount
	if count <= 0 {
		count = DefaultRequestedCount
	}
	cat := n.Categorizer
	if cat == nil {
		cat = text.NewCategorizer(nil)
	}
	norm := n.Normalizer
	if norm == nil {
		norm = text.NewNormalizer(nil)
	}

	var order []string
	groups := make(map[string][]*core.Candidate)
	for _, c := range items {
		if c == nil {
			continue
		}
		if c.Category == "" {
			c.Category = cat.Estimate(c.Book.Title, c.Book.Description)
		}
		if _, ok := groups[c.Category]; !ok {
			order = append(order, c.Category)
		}
		groups[c.Category] = append(groups[c.Category], c)
	}
	if len(order) == 0 {
		return nil, nil
	}

	s := &selector{
		rctx:       rctx,
		randomness: n.Randomness,
		norm:       norm,
		seen:       make(map[string]struct{}, count),
		picked:     make(map[*core.Candidate]struct{}, count),
	}

	if n.DiversityFactor > 0 {
		quota := ceilDiv(count, len(order))
		budget := min(count, int(math.Ceil(float64(count)*n.DiversityFactor)))
		for _, name := range order {
			if len(s.out) >= budget {
				break
			}
			group := groups[name]
			taken := 0
			for taken < quota && len(s.out) < budget && len(group) > 0 {
				var ok bool
				group, ok = s.take(group)
				if ok {
					taken++
				}
			}
		}
	}
	balanced := len(s.out)

	rest := make([]*core.Candidate, 0, len(items))
	for _, c := range items {
		if c == nil {
			continue
		}
		if _, ok := s.picked[c]; !ok {
			rest = append(rest, c)
		}
	}
	for len(s.out) < count && len(rest) > 0 {
		rest, _ = s.take(rest)
	}

	rank.SortByHybrid(s.out)
	for _, c := range s.out {
		c.PutLabel("category", core.Label{Value: c.Category, Source: "rerank"})
	}

	rctx.Log().Debug("diversity selection",
		zap.Int("categories", len(order)),
		zap.Int("balanced", balanced),
		zap.Int("out", len(s.out)),
	)
	return s.out, nil
}

type selector struct {
	rctx       *core.RecommendContext
	randomness float64
	norm       *text.Normalizer
	seen       map[string]struct{}
	picked     map[*core.Candidate]struct{}
	out        []*core.Candidate
}

// take 从 queue 头部（或以 randomness 概率从第二位）取出一个候选；
// 标题键已出现过时丢弃该候选并返回 false。
func (s *selector) take(queue []*core.Candidate) ([]*core.Candidate, bool) {
	i := 0
	if len(queue) >= 2 && s.randomness > 0 && s.rctx.Rand != nil && s.rctx.Rand.Float64() < s.randomness {
		i = 1
	}
	c := queue[i]
	queue = slices.Delete(queue, i, i+1)

	s.picked[c] = struct{}{}
	k := s.norm.TitleKey(c.Book.Title)
	if _, dup := s.seen[k]; dup {
		return queue, false
	}
	s.seen[k] = struct{}{}
	s.out = append(s.out, c)
	return queue, true
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
