package rank

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
)

// Weights 是四路信号的线性权重，不做归一化。
type Weights struct {
	Textual    float64 `yaml:"textual" json:"textual"`
	Author     float64 `yaml:"author" json:"author"`
	Genre      float64 `yaml:"genre" json:"genre"`
	Popularity float64 `yaml:"popularity" json:"popularity"`
}

func DefaultWeights() Weights {
	return Weights{Textual: 0.4, Author: 0.3, Genre: 0.4, Popularity: 0.3}
}

const (
	// DefaultMinScore 低于该混合分的候选被丢弃
	DefaultMinScore = 0.01
	// neutralPopularity 缺失评分时的热度信号
	neutralPopularity = 0.5
)

// Hybrid 是混合打分 Node：
// - 文本：召回阶段的余弦相似度
// - 作者：与任一已拥有的书有共同作者为 1，否则 0
// - 类别：候选类别集合与已拥有书类别并集的 Jaccard
// - 热度：rating/5，缺失为 0.5
//
// 写入 Signals/Hybrid，丢弃低于 MinScore 的候选，按分数降序排序（同分按语料下标升序）。
type Hybrid struct {
	Weights  Weights
	MinScore float64
}

func NewHybrid() *Hybrid {
	return &Hybrid{Weights: DefaultWeights(), MinScore: DefaultMinScore}
}

func (n *Hybrid) Name() string        { return "rank.hybrid" }
func (n *Hybrid) Kind() pipeline.Kind { return pipeline.KindRank }

type ownedSignals struct {
	authors    map[string]struct{}
	categories map[string]struct{}
}

func (n *Hybrid) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	owned := core.Memo(rctx, "rank.hybrid.owned", func() ownedSignals {
		s := ownedSignals{authors: make(map[string]struct{}), categories: make(map[string]struct{})}
		for _, b := range rctx.Owned {
			for _, a := range b.Authors {
				if k := key(a); k != "" {
					s.authors[k] = struct{}{}
				}
			}
			for _, c := range b.Categories {
				if k := key(c); k != "" {
					s.categories[k] = struct{}{}
				}
			}
		}
		return s
	})

	out := make([]*core.Candidate, 0, len(items))
	for _, c := range items {
		if c == nil {
			continue
		}
		c.Signals = core.Signals{
			Textual:    c.Similarity,
			Author:     AuthorSignal(c.Book.Authors, owned.authors),
			Genre:      GenreSignal(c.Book.Categories, owned.categories),
			Popularity: PopularitySignal(c.Book.Rating),
		}
		c.Hybrid = n.Weights.Score(c.Signals)
		if c.Hybrid < n.MinScore {
			continue
		}
		c.PutLabel("rank_model", core.Label{Value: "hybrid", Source: "rank"})
		out = append(out, c)
	}

	SortByHybrid(out)
	return out, nil
}

// Score 计算加权和。
func (w Weights) Score(s core.Signals) float64 {
	return w.Textual*s.Textual + w.Author*s.Author + w.Genre*s.Genre + w.Popularity*s.Popularity
}

// SortByHybrid 按混合分降序排序，同分按语料下标升序。
func SortByHybrid(items []*core.Candidate) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Hybrid != items[j].Hybrid {
			return items[i].Hybrid > items[j].Hybrid
		}
		return items[i].Index < items[j].Index
	})
}

func AuthorSignal(authors []string, owned map[string]struct{}) float64 {
	for _, a := range authors {
		if _, ok := owned[key(a)]; ok {
			return 1
		}
	}
	return 0
}

// GenreSignal 是 Jaccard(候选类别, 已拥有类别并集)；任一方为空时为 0。
func GenreSignal(categories []string, owned map[string]struct{}) float64 {
	if len(owned) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		if k := key(c); k != "" {
			set[k] = struct{}{}
		}
	}
	if len(set) == 0 {
		return 0
	}
	inter := 0
	for k := range set {
		if _, ok := owned[k]; ok {
			inter++
		}
	}
	union := len(set) + len(owned) - inter
	return float64(inter) / float64(union)
}

func PopularitySignal(rating *float64) float64 {
	if rating == nil || math.IsNaN(*rating) {
		return neutralPopularity
	}
	return math.Max(0, math.Min(1, *rating/5))
}

func key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
