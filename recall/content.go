package recall

import (
	"context"

	"go.uber.org/zap"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/text"
	"github.com/rushteam/bookrec/vector"
)

// Content 是基于内容的召回：构建语料、拟合 TF-IDF 空间、生成用户画像并按余弦相似度排序。
//
// 输入 items 被忽略，候选完全由 rctx 上的 Owned/Pool 生成。
// 每个相似度分数都会产出一个候选（包括已拥有的书），由下游 filter 剔除。
type Content struct {
	Normalizer *text.Normalizer

	// UseTitle 为 true 时语料文本为 标题+描述，否则优先使用描述。
	UseTitle bool

	Options vector.Options
}

// NewContent 使用默认表和默认拟合参数创建召回节点。
func NewContent() *Content {
	return &Content{
		Normalizer: text.NewNormalizer(nil),
		UseTitle:   true,
		Options:    vector.DefaultOptions(),
	}
}

func (r *Content) Name() string { return "recall.content" }
func (r *Content) Kind() pipeline.Kind { return pipeline.KindRecall }

// Result 是一次召回的中间产物，同一 rctx 内只计算一次。
type Result struct {
	Corpus  *vector.Corpus
	Space   *vector.Space
	Profile vector.Profile
	Scores  []vector.Score
}

const memoKey = "recall.content"

// Prepare 计算（或取回已缓存的）语料、向量空间、画像与相似度。
// 没有已拥有的书时返回 nil，且不拟合向量空间。
func (r *Content) Prepare(rctx *core.RecommendContext) *Result {
	return core.Memo(rctx, memoKey, func() *Result {
		if rctx.OwnedCount() == 0 {
			rctx.Log().Info("no owned books, skipping vector space")
			return nil
		}

		n := r.Normalizer
		if n == nil {
			n = text.NewNormalizer(nil)
		}
		corpus := vector.BuildCorpus(rctx.Books(), rctx.OwnedCount(), n, r.UseTitle)
		space := vector.Fit(corpus.Texts, r.Options)
		profile := vector.BuildProfile(space, corpus, rctx.Owned)

		res := &Result{Corpus: corpus, Space: space, Profile: profile}
		if profile.IsZero() {
			rctx.Log().Info("zero user profile",
				zap.Int("corpus", corpus.Len()),
				zap.String("mode", string(space.Mode)),
			)
			return res
		}
		res.Scores = vector.Rank(space, profile)

		rctx.Log().Debug("vector space fitted",
			zap.Int("corpus", corpus.Len()),
			zap.Int("vocabulary", space.Dim()),
			zap.String("mode", string(space.Mode)),
			zap.Int("scores", len(res.Scores)),
		)
		return res
	})
}

func (r *Content) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	_ []*core.Candidate,
) ([]*core.Candidate, error) {
	res := r.Prepare(rctx)
	if res == nil || len(res.Scores) == 0 {
		return nil, nil
	}

	books := rctx.Books()
	out := make([]*core.Candidate, 0, len(res.Scores))
	for _, s := range res.Scores {
		c := core.NewCandidate(s.Index, books[s.Index], s.Value)
		c.PutLabel("recall_source", core.Label{Value: "content", Source: "recall"})
		c.PutLabel("space_mode", core.Label{Value: string(res.Space.Mode), Source: "recall"})
		out = append(out, c)
	}
	return out, nil
}
