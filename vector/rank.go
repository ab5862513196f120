package vector

import (
	"math"
	"sort"
)

// Score 是 (文档下标, 余弦相似度)。
type Score struct {
	Index int
	Value float64
}

// Cosine 计算两个等长向量的余弦相似度；任一为零向量或维度不同时返回 0。
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Rank 计算画像与每篇文档（已拥有与候选都包括）的余弦相似度，
// 按分数降序，同分按下标升序。画像为空/全零或空间不可用时返回空列表。
func Rank(space *Space, profile Profile) []Score {
	if space == nil || space.Len() == 0 || profile.IsZero() || len(profile) != space.Dim() {
		return nil
	}
	scores := make([]Score, space.Len())
	for i, v := range space.Vectors {
		scores[i] = Score{Index: i, Value: Cosine(profile, v)}
	}
	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].Value > scores[b].Value
	})
	return scores
}
