// Package vector 实现内容向量化：语料构建、TF-IDF 向量空间、用户画像与余弦排序。
// 每次推荐调用都重新构建，向量空间不缓存、不跨调用共享（词表和维度取决于输入）。
package vector

import (
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/text"
)

// Document 是语料元数据表中的一行，与输入书目按下标一一对应。
type Document struct {
	Title         string
	Description   string
	Text          string // 规范化后的文本
	Authors       []string
	Image         string
	Rating        float64 // 缺失时为 0
	ExternalID    string
	OriginalIndex int
}

// Corpus 是与输入书目下标对齐的规范化文本序列及元数据表。
// 0..OwnedCount-1 为已拥有的书，其余为候选。
type Corpus struct {
	Texts      []string
	Docs       []Document
	OwnedCount int
}

// BuildCorpus 按输入顺序构建语料，顺序与下标严格保持。
func BuildCorpus(books []core.BookRecord, ownedCount int, n *text.Normalizer, useTitle bool) *Corpus {
	if n == nil {
		n = text.NewNormalizer(nil)
	}
	c := &Corpus{
		Texts:      make([]string, len(books)),
		Docs:       make([]Document, len(books)),
		OwnedCount: ownedCount,
	}
	for i, b := range books {
		normalized := n.Normalize(b.Title, b.Description, useTitle)
		c.Texts[i] = normalized
		c.Docs[i] = Document{
			Title:         b.Title,
			Description:   b.Description,
			Text:          normalized,
			Authors:       b.Authors,
			Image:         b.Image,
			Rating:        b.DisplayRating(),
			ExternalID:    b.ExternalID,
			OriginalIndex: i,
		}
	}
	return c
}

// Len 返回语料文档数。
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Texts)
}
