package filter

import (
	"context"
	"strings"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/text"
)

// SelfMatch 过滤语料中已拥有的书本身（Index < OwnedCount）。
type SelfMatch struct{}

func (SelfMatch) Name() string { return "filter.self_match" }

func (SelfMatch) ShouldFilter(_ context.Context, rctx *core.RecommendContext, c *core.Candidate) (bool, error) {
	return c.Index < rctx.OwnedCount(), nil
}

// MissingTitle 过滤空白标题的候选。
type MissingTitle struct{}

func (MissingTitle) Name() string { return "filter.missing_title" }

func (MissingTitle) ShouldFilter(_ context.Context, _ *core.RecommendContext, c *core.Candidate) (bool, error) {
	return !c.Book.HasTitle(), nil
}

// OwnedTitle 过滤与已拥有的书同名的候选：
// 标题键（去卷号、去版本标记）相同，或小写原标题相同。
type OwnedTitle struct {
	Normalizer *text.Normalizer
}

func NewOwnedTitle() *OwnedTitle {
	return &OwnedTitle{Normalizer: text.NewNormalizer(nil)}
}

func (f *OwnedTitle) Name() string { return "filter.owned_title" }

type ownedTitles struct {
	keys map[string]struct{}
	raw  map[string]struct{}
}

func (f *OwnedTitle) ShouldFilter(_ context.Context, rctx *core.RecommendContext, c *core.Candidate) (bool, error) {
	n := f.Normalizer
	if n == nil {
		n = text.NewNormalizer(nil)
	}
	set := core.Memo(rctx, "filter.owned_title", func() ownedTitles {
		s := ownedTitles{keys: make(map[string]struct{}), raw: make(map[string]struct{})}
		for _, b := range rctx.Owned {
			if k := n.TitleKey(b.Title); k != "" {
				s.keys[k] = struct{}{}
			}
			if r := strings.ToLower(b.Title); r != "" {
				s.raw[r] = struct{}{}
			}
		}
		return s
	})

	if _, ok := set.keys[n.TitleKey(c.Book.Title)]; ok {
		return true, nil
	}
	_, ok := set.raw[strings.ToLower(c.Book.Title)]
	return ok, nil
}

// OwnedSeries 过滤与任一已拥有的书属于同一系列的候选。
// 只在开启同系列过滤时挂载。
type OwnedSeries struct {
	Series *text.Series
}

func NewOwnedSeries() *OwnedSeries {
	return &OwnedSeries{Series: text.NewSeries(nil)}
}

func (f *OwnedSeries) Name() string { return "filter.owned_series" }

func (f *OwnedSeries) ShouldFilter(_ context.Context, rctx *core.RecommendContext, c *core.Candidate) (bool, error) {
	s := f.series()
	keys := core.Memo(rctx, "filter.owned_series", func() []string {
		out := make([]string, 0, len(rctx.Owned))
		for _, b := range rctx.Owned {
			if k := s.Key(b.Title); k != "" {
				out = append(out, k)
			}
		}
		return out
	})

	ck := c.SeriesKey
	if ck == "" {
		ck = s.Key(c.Book.Title)
		c.SeriesKey = ck
	}
	for _, k := range keys {
		if text.SameSeries(ck, k) {
			return true, nil
		}
	}
	return false, nil
}

func (f *OwnedSeries) series() *text.Series {
	if f.Series == nil {
		return text.NewSeries(nil)
	}
	return f.Series
}
