package text

import "strings"

// Categorizer 按类别表顺序做关键词首个命中，估计候选的类别。
type Categorizer struct {
	rules    []CategoryRule
	fallback string
}

// NewCategorizer 用查表数据构建 Categorizer；t 为 nil 时使用默认表。
func NewCategorizer(t *Tables) *Categorizer {
	if t == nil {
		t = DefaultTables()
	}
	return &Categorizer{rules: t.Categories, fallback: t.DefaultCategory}
}

// Estimate 在小写的 标题+简介 中查找关键词，返回首个命中的类别。
func (c *Categorizer) Estimate(title, description string) string {
	combined := strings.ToLower(title + " " + description)
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(combined, kw) {
				return rule.Name
			}
		}
	}
	return c.fallback
}

// Fallback 返回未命中时的默认类别。
func (c *Categorizer) Fallback() string {
	return c.fallback
}
