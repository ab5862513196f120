package filter

import (
	"context"

	"go.uber.org/zap"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/text"
)

// SeriesDedup 在候选池内按系列去重：同一系列只保留排在最前面的一本。
// PreferFirstVolume 开启时，若保留的那本不是第 1 卷而后面出现了同系列的第 1 卷，
// 则用第 1 卷替换它（位置不变）。
type SeriesDedup struct {
	Series            *text.Series
	PreferFirstVolume bool
}

func NewSeriesDedup(preferFirstVolume bool) *SeriesDedup {
	return &SeriesDedup{Series: text.NewSeries(nil), PreferFirstVolume: preferFirstVolume}
}

func (n *SeriesDedup) Name() string        { return "filter.series_dedup" }
func (n *SeriesDedup) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *SeriesDedup) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	s := n.Series
	if s == nil {
		s = text.NewSeries(nil)
	}

	out := make([]*core.Candidate, 0, len(items))
	swapped := 0
	for _, c := range items {
		if c == nil {
			continue
		}
		if c.SeriesKey == "" {
			c.SeriesKey = s.Key(c.Book.Title)
		}

		slot := -1
		for i, kept := range out {
			if text.SameSeries(c.SeriesKey, kept.SeriesKey) {
				slot = i
				break
			}
		}
		if slot < 0 {
			out = append(out, c)
			continue
		}

		kept := out[slot]
		if n.PreferFirstVolume && !text.IsFirstVolume(kept.Book.Title) && text.IsFirstVolume(c.Book.Title) {
			kept.PutLabel("filtered", core.Label{Value: "true", Source: n.Name()})
			c.PutLabel("series_swap", core.Label{Value: kept.Book.Title, Source: n.Name()})
			out[slot] = c
			swapped++
			continue
		}
		c.PutLabel("filtered", core.Label{Value: "true", Source: n.Name()})
	}

	rctx.Log().Debug("series dedup",
		zap.Int("in", len(items)),
		zap.Int("out", len(out)),
		zap.Int("swapped", swapped),
	)
	return out, nil
}
