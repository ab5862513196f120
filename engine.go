package bookrec

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/filter"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/postprocess"
	"github.com/rushteam/bookrec/rank"
	"github.com/rushteam/bookrec/recall"
	"github.com/rushteam/bookrec/rerank"
	"github.com/rushteam/bookrec/text"
	"github.com/rushteam/bookrec/vector"
)

// Engine 持有不可变的配置、查表数据与观测钩子。
// 每次 Recommend 都新建语料、向量空间、画像与随机源，可并发使用。
type Engine struct {
	cfg     Config
	tables  *text.Tables
	logger  *zap.Logger
	hooks   []pipeline.Hook
	store   core.Store
	content *recall.Content
	pipe    *pipeline.Pipeline
	newRand func() *rand.Rand
}

// Option 配置 Engine。
type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithHooks 追加 Pipeline 观测钩子（日志钩子总是存在）。
func WithHooks(hooks ...pipeline.Hook) Option {
	return func(e *Engine) { e.hooks = append(e.hooks, hooks...) }
}

// WithRand 替换每次调用的随机源构造函数，优先于 Config.Seed。
func WithRand(f func() *rand.Rand) Option {
	return func(e *Engine) { e.newRand = f }
}

// WithPipeline 使用自定义 Node 链（例如由 pipeline.Config 构建）替换默认链路。
// 自定义链路的第一个 Node 应当是召回节点。
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(e *Engine) { e.pipe = p }
}

// WithStore 让默认链路在候选过滤之后读取读者的屏蔽列表（key 为 reader:block:{readerID}）。
// 只对 RecommendForReader 传入的非空 readerID 生效。
func WithStore(s core.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithTables 直接注入查表数据，优先于 Config.Tables。
func WithTables(t *text.Tables) Option {
	return func(e *Engine) { e.tables = t }
}

// New 校验配置、加载查表数据并组装默认 Pipeline。
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}

	if e.tables == nil {
		if cfg.Tables != "" {
			t, err := text.LoadTables(cfg.Tables)
			if err != nil {
				return nil, err
			}
			e.tables = t
		} else {
			e.tables = text.DefaultTables()
		}
	}

	norm := text.NewNormalizer(e.tables)
	e.content = &recall.Content{
		Normalizer: norm,
		UseTitle:   cfg.UseTitleInCorpus,
		Options:    cfg.Vector,
	}

	hooks := append([]pipeline.Hook{pipeline.LogHook{}}, e.hooks...)
	if e.pipe != nil {
		e.pipe = &pipeline.Pipeline{Nodes: e.pipe.Nodes, Hooks: append(hooks, e.pipe.Hooks...)}
		return e, nil
	}
	e.pipe = &pipeline.Pipeline{Nodes: e.defaultNodes(norm), Hooks: hooks}
	return e, nil
}

func (e *Engine) defaultNodes(norm *text.Normalizer) []pipeline.Node {
	series := text.NewSeries(e.tables)
	categorizer := text.NewCategorizer(e.tables)

	nodes := []pipeline.Node{
		e.content,
		&filter.FilterNode{
			ID: "filter.candidate",
			Filters: []filter.Filter{
				filter.SelfMatch{},
				filter.MissingTitle{},
				&filter.OwnedTitle{Normalizer: norm},
			},
		},
	}
	if e.store != nil {
		nodes = append(nodes, &filter.FilterNode{
			ID:      "filter.blocklist",
			Filters: []filter.Filter{filter.NewBlocklist(nil, filter.NewStoreAdapter(e.store), "")},
		})
	}
	if e.cfg.FilterSameSeries {
		nodes = append(nodes, &filter.FilterNode{
			ID:      "filter.owned_series",
			Filters: []filter.Filter{&filter.OwnedSeries{Series: series}},
		})
	}

	explain := postprocess.NewExplain(e.cfg.Reasons)
	explain.Categorizer = categorizer

	return append(nodes,
		&filter.SeriesDedup{Series: series, PreferFirstVolume: e.cfg.PreferFirstVolume},
		&rank.Hybrid{Weights: e.cfg.Weights, MinScore: e.cfg.MinScore},
		&rerank.Diversity{
			RequestedCount:  e.cfg.RequestedCount,
			DiversityFactor: e.cfg.DiversityFactor,
			Randomness:      e.cfg.Randomness,
			Categorizer:     categorizer,
			Normalizer:      norm,
		},
		explain,
	)
}

// Config 返回引擎使用的配置。
func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) newContext(readerID string, owned, pool []core.BookRecord) *core.RecommendContext {
	runID := uuid.NewString()
	return &core.RecommendContext{
		RunID:    runID,
		ReaderID: readerID,
		Owned:    owned,
		Pool:     pool,
		Rand:     e.random(),
		Logger:   e.logger.With(zap.String("run_id", runID)),
	}
}

func (e *Engine) random() *rand.Rand {
	if e.newRand != nil {
		return e.newRand()
	}
	if e.cfg.Seed != 0 {
		return rand.New(rand.NewPCG(e.cfg.Seed, e.cfg.Seed))
	}
	return rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
}

// Recommend 返回最多 RequestedCount 条推荐。任何阶段退化或失败都只会让结果变少，
// 不返回 error。
func (e *Engine) Recommend(ctx context.Context, owned, pool []core.BookRecord) []core.Recommendation {
	return e.RecommendForReader(ctx, "", owned, pool)
}

// RecommendForReader 与 Recommend 相同，额外把 readerID 透传给按读者工作的 Node（如屏蔽列表）。
func (e *Engine) RecommendForReader(ctx context.Context, readerID string, owned, pool []core.BookRecord) []core.Recommendation {
	rctx := e.newContext(readerID, owned, pool)
	log := rctx.Log()
	log.Debug("recommend",
		zap.String("reader", readerID),
		zap.Int("owned", len(owned)),
		zap.Int("pool", len(pool)),
	)

	items, err := e.pipe.Run(ctx, rctx, nil)
	if err != nil {
		log.Error("recommend failed", zap.Error(err))
		return []core.Recommendation{}
	}
	if len(items) > e.cfg.RequestedCount {
		items = items[:e.cfg.RequestedCount]
	}
	return postprocess.Format(items)
}

const (
	analyzeTopTerms     = 10
	analyzeOwnedSamples = 5
	analyzeHighScore    = 0.05
)

// Analyze 返回向量化过程的诊断信息：语料与词表规模、画像维度与权重最高的词、
// 前几本已拥有书的规范化文本、零相似度与高相似度候选的数量。
func (e *Engine) Analyze(ctx context.Context, owned, pool []core.BookRecord) core.Analysis {
	empty := core.Analysis{TopFeatures: []core.FeatureWeight{}, OwnedSamples: []core.NormalizedSample{}}
	if ctx.Err() != nil {
		return empty
	}
	rctx := e.newContext("", owned, pool)
	res := e.content.Prepare(rctx)
	if res == nil {
		return empty
	}

	a := core.Analysis{
		CorpusSize:     res.Corpus.Len(),
		VocabularySize: res.Space.Dim(),
		SpaceMode:      string(res.Space.Mode),
		ProfileDims:    len(res.Profile),
		MatchedOwned:   len(vector.MatchOwned(res.Corpus, owned)),
		TopFeatures:    vector.TopTerms(res.Space, res.Profile, analyzeTopTerms),
		OwnedSamples:   make([]core.NormalizedSample, 0, analyzeOwnedSamples),
	}
	if a.TopFeatures == nil {
		a.TopFeatures = []core.FeatureWeight{}
	}
	for i := 0; i < res.Corpus.OwnedCount && i < analyzeOwnedSamples; i++ {
		a.OwnedSamples = append(a.OwnedSamples, core.NormalizedSample{
			Title: res.Corpus.Docs[i].Title,
			Text:  res.Corpus.Texts[i],
		})
	}

	if len(res.Scores) == 0 {
		a.ZeroScoreCount = res.Corpus.Len() - res.Corpus.OwnedCount
		return a
	}
	for _, s := range res.Scores {
		if s.Index < res.Corpus.OwnedCount {
			continue
		}
		switch {
		case s.Value == 0:
			a.ZeroScoreCount++
		case s.Value > analyzeHighScore:
			a.HighScoreCount++
		}
	}
	rctx.Log().Debug("analysis",
		zap.Int("corpus", a.CorpusSize),
		zap.Int("vocabulary", a.VocabularySize),
		zap.Int("zero", a.ZeroScoreCount),
		zap.Int("high", a.HighScoreCount),
	)
	return a
}
