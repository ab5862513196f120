package vector

import (
	"sort"
	"strings"

	"github.com/rushteam/bookrec/core"
)

// fallbackProfileDim 是向量空间不可用时零画像的维度。
const fallbackProfileDim = 10

// Profile 是读者口味的单一向量，与向量空间同维。
// 全零画像是合法的终态，表示没有可用信号，调用方应直接返回空推荐。
type Profile []float64

// IsZero 画像为空或全零。
func (p Profile) IsZero() bool {
	for _, x := range p {
		if x != 0 {
			return false
		}
	}
	return true
}

// Match 是一本已拥有书在语料中的位置及其权重。
type Match struct {
	Owned  int // Owned 列表中的下标
	Index  int // 语料下标
	Weight float64
}

// MatchOwned 按标题（小写、去首尾空白）在语料元数据中查找每本已拥有书，
// 每本书取首个命中，未命中的书跳过。权重 = rating/5，rating 取自原始记录。
func MatchOwned(corpus *Corpus, owned []core.BookRecord) []Match {
	if corpus == nil {
		return nil
	}
	index := make(map[string]int, len(corpus.Docs))
	for i := len(corpus.Docs) - 1; i >= 0; i-- {
		key := titleMatchKey(corpus.Docs[i].Title)
		if key != "" {
			index[key] = i
		}
	}

	matches := make([]Match, 0, len(owned))
	for i, b := range owned {
		key := titleMatchKey(b.Title)
		if key == "" {
			continue
		}
		idx, ok := index[key]
		if !ok {
			continue
		}
		matches = append(matches, Match{Owned: i, Index: idx, Weight: b.ProfileRating() / 5.0})
	}
	return matches
}

func titleMatchKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// BuildProfile 以已拥有书向量的加权均值作为画像。
// 总权重为 0 时退回算术均值；没有命中时返回空间维度的零向量；
// 空间不可用时返回固定小维度的零向量。
func BuildProfile(space *Space, corpus *Corpus, owned []core.BookRecord) Profile {
	if space == nil || space.Len() == 0 {
		return make(Profile, fallbackProfileDim)
	}
	dim := space.Dim()
	matches := MatchOwned(corpus, owned)

	vectors := make([][]float64, 0, len(matches))
	weights := make([]float64, 0, len(matches))
	for _, m := range matches {
		if m.Index >= space.Len() {
			continue
		}
		vectors = append(vectors, space.Vectors[m.Index])
		weights = append(weights, m.Weight)
	}
	if len(vectors) == 0 {
		return make(Profile, dim)
	}

	profile := make(Profile, dim)
	var totalWeight float64
	for k, v := range vectors {
		for j, x := range v {
			profile[j] += x * weights[k]
		}
		totalWeight += weights[k]
	}
	if totalWeight > 0 {
		for j := range profile {
			profile[j] /= totalWeight
		}
		return profile
	}

	clear(profile)
	for _, v := range vectors {
		for j, x := range v {
			profile[j] += x
		}
	}
	for j := range profile {
		profile[j] /= float64(len(vectors))
	}
	return profile
}

// TopTerms 返回画像中权重最高的 k 个正权重词，同权按字典序。
func TopTerms(space *Space, profile Profile, k int) []core.FeatureWeight {
	if space == nil || len(profile) != space.Dim() {
		return nil
	}
	out := make([]core.FeatureWeight, 0, len(profile))
	for j, w := range profile {
		if w > 0 {
			out = append(out, core.FeatureWeight{Term: space.Vocabulary[j], Weight: w})
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Weight != out[b].Weight {
			return out[a].Weight > out[b].Weight
		}
		return out[a].Term < out[b].Term
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}
