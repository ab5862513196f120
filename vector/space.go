package vector

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// Mode 标记向量空间的构建方式。
type Mode string

const (
	ModeStandard Mode = "standard" // >= 2 篇非空文档：TF-IDF
	ModeSingle   Mode = "single"   // 恰好 1 篇非空文档：原始词频
	ModeEmpty    Mode = "empty"    // 没有可用词：占位零矩阵
)

// 与常见 TF-IDF 分词一致：连续 >= 2 个单词字符为一个词。
var tokenRe = regexp.MustCompile(`[\p{L}\p{N}\p{M}_]{2,}`)

// Options 是向量空间的构建参数。
type Options struct {
	// MaxFeatures 词表上限（按语料总词频取前 N）
	MaxFeatures int `yaml:"max_features"`
	// MaxDF 文档频率占比上限，超过的词被视为无区分度而剔除
	MaxDF float64 `yaml:"max_df"`
	// SingleDocMaxFeatures 单文档退化时的词表上限
	SingleDocMaxFeatures int `yaml:"single_doc_max_features"`
	// PlaceholderDim 空语料退化时的占位维度
	PlaceholderDim int `yaml:"placeholder_dim"`
}

// DefaultOptions 返回默认构建参数。
func DefaultOptions() Options {
	return Options{
		MaxFeatures:          1000,
		MaxDF:                0.8,
		SingleDocMaxFeatures: 100,
		PlaceholderDim:       10,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxFeatures <= 0 {
		o.MaxFeatures = d.MaxFeatures
	}
	if o.MaxDF <= 0 {
		o.MaxDF = d.MaxDF
	}
	if o.SingleDocMaxFeatures <= 0 {
		o.SingleDocMaxFeatures = d.SingleDocMaxFeatures
	}
	if o.PlaceholderDim <= 0 {
		o.PlaceholderDim = d.PlaceholderDim
	}
	return o
}

// Space 是词表加上每篇文档一个权重向量；len(Vectors) 等于语料长度，
// 每个向量维度等于 len(Vocabulary)。
type Space struct {
	Vocabulary []string
	Vectors    [][]float64
	Mode       Mode
}

// Dim 返回向量维度。
func (s *Space) Dim() int {
	if s == nil {
		return 0
	}
	return len(s.Vocabulary)
}

// Len 返回文档数。
func (s *Space) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Vectors)
}

// Terms 把规范化文本切分为 unigram + bigram。
func Terms(text string) []string {
	tokens := tokenRe.FindAllString(strings.ToLower(text), -1)
	if len(tokens) == 0 {
		return nil
	}
	terms := make([]string, 0, 2*len(tokens)-1)
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}

func countTerms(text string) map[string]int {
	counts := make(map[string]int)
	for _, t := range Terms(text) {
		counts[t]++
	}
	return counts
}

// Fit 在语料上构建向量空间，只使用非空文档学习词表。
// 退化输入不报错：
//   - 没有非空文档：零矩阵（文档数 x PlaceholderDim）与占位词表
//   - 恰好 1 篇：该文档自身的原始词频，词表上限 SingleDocMaxFeatures，其余行全零
//   - >= 2 篇：标准 TF-IDF（平滑 idf、L2 归一化），空文档保持全零行
func Fit(texts []string, opts Options) *Space {
	opts = opts.withDefaults()

	nonEmpty := make([]int, 0, len(texts))
	for i, t := range texts {
		if strings.TrimSpace(t) != "" {
			nonEmpty = append(nonEmpty, i)
		}
	}

	switch len(nonEmpty) {
	case 0:
		return placeholderSpace(len(texts), opts.PlaceholderDim)
	case 1:
		return singleDocSpace(texts, nonEmpty[0], opts)
	default:
		return tfidfSpace(texts, nonEmpty, opts)
	}
}

func placeholderSpace(docs, dim int) *Space {
	vocab := make([]string, dim)
	for i := range vocab {
		vocab[i] = fmt.Sprintf("dummy%d", i)
	}
	return &Space{
		Vocabulary: vocab,
		Vectors:    zeroRows(docs, dim),
		Mode:       ModeEmpty,
	}
}

func singleDocSpace(texts []string, idx int, opts Options) *Space {
	counts := countTerms(texts[idx])
	if len(counts) == 0 {
		return placeholderSpace(len(texts), opts.PlaceholderDim)
	}
	vocab := topTerms(counts, opts.SingleDocMaxFeatures)
	sort.Strings(vocab)

	vectors := zeroRows(len(texts), len(vocab))
	for j, term := range vocab {
		vectors[idx][j] = float64(counts[term])
	}
	return &Space{Vocabulary: vocab, Vectors: vectors, Mode: ModeSingle}
}

func tfidfSpace(texts []string, nonEmpty []int, opts Options) *Space {
	n := len(nonEmpty)
	docCounts := make(map[int]map[string]int, n)
	df := make(map[string]int)
	total := make(map[string]int)
	for _, i := range nonEmpty {
		counts := countTerms(texts[i])
		docCounts[i] = counts
		for term, c := range counts {
			df[term]++
			total[term] += c
		}
	}

	// 文档频率过高的词没有区分度
	maxDocCount := int(opts.MaxDF * float64(n))
	if opts.MaxDF >= 1 {
		maxDocCount = n
	}
	kept := make(map[string]int, len(total))
	for term, c := range total {
		if df[term] <= maxDocCount {
			kept[term] = c
		}
	}
	if len(kept) == 0 {
		return placeholderSpace(len(texts), opts.PlaceholderDim)
	}

	vocab := topTerms(kept, opts.MaxFeatures)
	sort.Strings(vocab)

	idf := make([]float64, len(vocab))
	for j, term := range vocab {
		idf[j] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}

	vectors := zeroRows(len(texts), len(vocab))
	for _, i := range nonEmpty {
		counts := docCounts[i]
		row := vectors[i]
		for j, term := range vocab {
			if c := counts[term]; c > 0 {
				row[j] = float64(c) * idf[j]
			}
		}
		l2Normalize(row)
	}
	return &Space{Vocabulary: vocab, Vectors: vectors, Mode: ModeStandard}
}

// topTerms 按词频降序取前 limit 个词，同频按字典序。
func topTerms(counts map[string]int, limit int) []string {
	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(a, b int) bool {
		ca, cb := counts[terms[a]], counts[terms[b]]
		if ca != cb {
			return ca > cb
		}
		return terms[a] < terms[b]
	})
	if limit > 0 && len(terms) > limit {
		terms = terms[:limit]
	}
	return terms
}

func zeroRows(rows, dim int) [][]float64 {
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, dim)
	}
	return out
}

func l2Normalize(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] /= norm
	}
}
