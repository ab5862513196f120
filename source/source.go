// Package source 获取外部候选书目：单个检索源、并发多查询合并与结果缓存。
package source

import (
	"context"
	"strings"

	"github.com/rushteam/bookrec/core"
)

// Provider 表示一个外部候选源（Google Books、本地 JSON 文件等）。
type Provider interface {
	Name() string
	Candidates(ctx context.Context, query string) ([]core.BookRecord, error)
}

// dedupKey 是候选去重键：优先 externalId，否则使用小写标题。
func dedupKey(b core.BookRecord) string {
	if b.ExternalID != "" {
		return "id:" + b.ExternalID
	}
	return "title:" + strings.ToLower(strings.TrimSpace(b.Title))
}
