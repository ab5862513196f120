// Package text 负责书名/简介的文本处理：规范化、系列键、卷号识别与类别估计。
// 查表数据（版本标记、罗马字映射、类别关键词）来自 Tables，不写死在代码里。
package text

import (
	"regexp"
	"strings"
)

// fixedPoint 反复应用 pass 直到输出不再变化。每轮只删除或替换文本，
// 迭代次数以输入长度为上限。
func fixedPoint(s string, pass func(string) string) string {
	for range len(s) + 1 {
		next := pass(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

var (
	// 卷号标记：N巻、第N巻、vol. N、末尾数字
	volumeMarkerRe = regexp.MustCompile(`(?i)第[0-9０-９]+巻|[0-9０-９]+巻|vol\.?\s*[0-9０-９]+|[0-9０-９]+$`)
	// 标题键只去掉 巻 形式的卷号，与版本标记一起使用
	titleVolumeRe = regexp.MustCompile(`第[0-9０-９]+巻|[0-9０-９]+巻`)
	// 非 字母/数字/组合符/下划线/空白 的字符视为标点
	punctRe = regexp.MustCompile(`[^\p{L}\p{N}\p{M}_\s]+`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// Normalizer 把一条 标题/简介 清洗为可向量化的字符串。
// 无状态，可并发使用。
type Normalizer struct {
	editionRe *regexp.Regexp
}

// NewNormalizer 用查表数据中的版本标记构建 Normalizer；t 为 nil 时使用默认表。
func NewNormalizer(t *Tables) *Normalizer {
	if t == nil {
		t = DefaultTables()
	}
	return &Normalizer{editionRe: editionPattern(t.Editions)}
}

// editionPattern 把版本标记编译为一个不区分大小写的正则；表为空时返回 nil。
func editionPattern(editions []string) *regexp.Regexp {
	if len(editions) == 0 {
		return nil
	}
	quoted := make([]string, 0, len(editions))
	for _, e := range editions {
		quoted = append(quoted, regexp.QuoteMeta(e))
	}
	return regexp.MustCompile(`(?i)` + strings.Join(quoted, "|"))
}

// Combine 按策略组合文本：useTitle 为 true 时拼接标题与简介；
// 否则简介非空时只用简介，为空时退回标题。
func Combine(title, description string, useTitle bool) string {
	if useTitle {
		return title + " " + description
	}
	if strings.TrimSpace(description) != "" {
		return description
	}
	return title
}

// Normalize 组合文本后去掉卷号与版本标记、标点，合并空白并转小写。
// 结果是不动点：Normalize 的输出再次规范化不变。
func (n *Normalizer) Normalize(title, description string, useTitle bool) string {
	return n.Clean(Combine(title, description, useTitle))
}

// Clean 对单个字符串做与 Normalize 相同的清洗。
func (n *Normalizer) Clean(s string) string {
	return fixedPoint(s, n.pass)
}

func (n *Normalizer) pass(s string) string {
	s = volumeMarkerRe.ReplaceAllString(s, "")
	if n.editionRe != nil {
		s = n.editionRe.ReplaceAllString(s, "")
	}
	s = punctRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
	return strings.ToLower(s)
}

// TitleKey 是判断“同一本书”用的标题键：小写、去掉 巻 形式的卷号与版本标记、合并空白。
// 比 SeriesKey 宽松，用于精确去重而不是系列合并。
func (n *Normalizer) TitleKey(title string) string {
	s := strings.ToLower(title)
	s = titleVolumeRe.ReplaceAllString(s, "")
	if n.editionRe != nil {
		s = n.editionRe.ReplaceAllString(s, "")
	}
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
