package builders

import (
	"fmt"

	"github.com/rushteam/bookrec/config"
	"github.com/rushteam/bookrec/filter"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/conv"
	"github.com/rushteam/bookrec/pkg/dsl"
	"github.com/rushteam/bookrec/postprocess"
	"github.com/rushteam/bookrec/rank"
	"github.com/rushteam/bookrec/recall"
	"github.com/rushteam/bookrec/rerank"
	"github.com/rushteam/bookrec/text"
	"github.com/rushteam/bookrec/vector"
)

func init() {
	config.Register("recall.content", BuildContentNode)
	config.Register("filter", BuildFilterNode)
	config.Register("filter.blocklist", BuildBlocklistNode)
	config.Register("filter.series_dedup", BuildSeriesDedupNode)
	config.Register("rank.hybrid", BuildHybridNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.diversity", BuildDiversityNode)
	config.Register("postprocess.format", BuildFormatNode)
}

// tables 读取节点配置中的 tables 路径，未配置时使用内置表。
func tables(cfg map[string]any) (*text.Tables, error) {
	path := conv.ConfigGet(cfg, "tables", "")
	if path == "" {
		return text.DefaultTables(), nil
	}
	return text.LoadTables(path)
}

func BuildContentNode(cfg map[string]any) (pipeline.Node, error) {
	t, err := tables(cfg)
	if err != nil {
		return nil, err
	}
	opts := vector.DefaultOptions()
	opts.MaxFeatures = conv.ConfigGetInt(cfg, "max_features", opts.MaxFeatures)
	opts.MaxDF = conv.ConfigGetFloat64(cfg, "max_df", opts.MaxDF)
	opts.SingleDocMaxFeatures = conv.ConfigGetInt(cfg, "single_doc_max_features", opts.SingleDocMaxFeatures)
	if opts.MaxDF <= 0 || opts.MaxDF > 1 {
		return nil, fmt.Errorf("max_df must be in (0,1], got %v", opts.MaxDF)
	}
	return &recall.Content{
		Normalizer: text.NewNormalizer(t),
		UseTitle:   conv.ConfigGet(cfg, "use_title", true),
		Options:    opts,
	}, nil
}

func BuildFilterNode(cfg map[string]any) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]any)
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	t, err := tables(cfg)
	if err != nil {
		return nil, err
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]any)
		if !ok {
			continue
		}
		filterType := conv.ConfigGet(filterMap, "type", "")
		switch filterType {
		case "self_match":
			filters = append(filters, filter.SelfMatch{})
		case "missing_title":
			filters = append(filters, filter.MissingTitle{})
		case "owned_title":
			filters = append(filters, &filter.OwnedTitle{Normalizer: text.NewNormalizer(t)})
		case "owned_series":
			filters = append(filters, &filter.OwnedSeries{Series: text.NewSeries(t)})
		case "blocklist":
			entries := conv.SliceAnyToString(filterMap["entries"])
			keyPrefix := conv.ConfigGet(filterMap, "key_prefix", "")
			filters = append(filters, filter.NewBlocklist(entries, nil, keyPrefix))
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.FilterNode{ID: conv.ConfigGet(cfg, "name", ""), Filters: filters}, nil
}

// BuildBlocklistNode 只使用配置中的静态列表；需要按读者读取存储时，
// 入口处用携带 filter.StoreAdapter 的闭包重新注册 filter.blocklist。
func BuildBlocklistNode(cfg map[string]any) (pipeline.Node, error) {
	return BlocklistNode(cfg, nil), nil
}

// BlocklistNode 构建屏蔽过滤节点，adapter 可为 nil。
func BlocklistNode(cfg map[string]any, adapter *filter.StoreAdapter) pipeline.Node {
	b := filter.NewBlocklist(
		conv.SliceAnyToString(cfg["entries"]),
		adapter,
		conv.ConfigGet(cfg, "key_prefix", ""),
	)
	return &filter.FilterNode{ID: "filter.blocklist", Filters: []filter.Filter{b}}
}

func BuildSeriesDedupNode(cfg map[string]any) (pipeline.Node, error) {
	t, err := tables(cfg)
	if err != nil {
		return nil, err
	}
	return &filter.SeriesDedup{
		Series:            text.NewSeries(t),
		PreferFirstVolume: conv.ConfigGet(cfg, "prefer_first_volume", false),
	}, nil
}

func BuildHybridNode(cfg map[string]any) (pipeline.Node, error) {
	w := rank.DefaultWeights()
	if wm, ok := cfg["weights"].(map[string]any); ok {
		w.Textual = conv.ConfigGetFloat64(wm, "textual", w.Textual)
		w.Author = conv.ConfigGetFloat64(wm, "author", w.Author)
		w.Genre = conv.ConfigGetFloat64(wm, "genre", w.Genre)
		w.Popularity = conv.ConfigGetFloat64(wm, "popularity", w.Popularity)
	}
	minScore := conv.ConfigGetFloat64(cfg, "min_score", rank.DefaultMinScore)
	if minScore < 0 {
		return nil, fmt.Errorf("min_score must be non-negative, got %v", minScore)
	}
	return &rank.Hybrid{Weights: w, MinScore: minScore}, nil
}

func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.TopNNode{N: conv.ConfigGetInt(cfg, "n", 0)}, nil
}

func BuildDiversityNode(cfg map[string]any) (pipeline.Node, error) {
	t, err := tables(cfg)
	if err != nil {
		return nil, err
	}
	n := &rerank.Diversity{
		RequestedCount:  conv.ConfigGetInt(cfg, "requested_count", rerank.DefaultRequestedCount),
		DiversityFactor: conv.ConfigGetFloat64(cfg, "diversity_factor", 1),
		Randomness:      conv.ConfigGetFloat64(cfg, "randomness", 0),
		Categorizer:     text.NewCategorizer(t),
		Normalizer:      text.NewNormalizer(t),
	}
	switch {
	case n.RequestedCount <= 0:
		return nil, fmt.Errorf("requested_count must be positive, got %d", n.RequestedCount)
	case n.DiversityFactor < 0 || n.DiversityFactor > 1:
		return nil, fmt.Errorf("diversity_factor must be in [0,1], got %v", n.DiversityFactor)
	case n.Randomness < 0 || n.Randomness > 1:
		return nil, fmt.Errorf("randomness must be in [0,1], got %v", n.Randomness)
	}
	return n, nil
}

func BuildFormatNode(cfg map[string]any) (pipeline.Node, error) {
	var rules []dsl.Rule
	if rc, ok := cfg["reasons"].([]any); ok {
		for _, r := range rc {
			rm, ok := r.(map[string]any)
			if !ok {
				continue
			}
			rules = append(rules, dsl.Rule{
				Expr: conv.ConfigGet(rm, "expr", ""),
				Text: conv.ConfigGet(rm, "text", ""),
			})
		}
	}
	t, err := tables(cfg)
	if err != nil {
		return nil, err
	}
	n := postprocess.NewExplain(rules)
	n.Categorizer = text.NewCategorizer(t)
	return n, nil
}
