package filter

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/rushteam/bookrec/core"
)

// BlocklistStore 是屏蔽列表存储接口。
type BlocklistStore interface {
	// GetBlocklist 获取屏蔽的 externalId 或书名列表
	GetBlocklist(ctx context.Context, key string) ([]string, error)
}

// Blocklist 过滤读者明确不想看到的书。
// 条目可以是 externalId，也可以是书名（不区分大小写）。
type Blocklist struct {
	// Entries 是内存中的屏蔽列表
	Entries []string

	// Store 用于按读者读取屏蔽列表（可选），key 为 {KeyPrefix}:{ReaderID}
	Store BlocklistStore

	KeyPrefix string
}

// NewBlocklist 创建一个屏蔽过滤器。
func NewBlocklist(entries []string, storeAdapter *StoreAdapter, keyPrefix string) *Blocklist {
	var store BlocklistStore
	if storeAdapter != nil {
		store = storeAdapter
	}
	return &Blocklist{Entries: entries, Store: store, KeyPrefix: keyPrefix}
}

func (f *Blocklist) Name() string {
	return "filter.blocklist"
}

func (f *Blocklist) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	c *core.Candidate,
) (bool, error) {
	set := core.Memo(rctx, "filter.blocklist", func() map[string]struct{} {
		return f.load(ctx, rctx)
	})

	if id := c.Book.ExternalID; id != "" {
		if _, ok := set[id]; ok {
			return true, nil
		}
	}
	_, ok := set[blockKey(c.Book.Title)]
	return ok, nil
}

// load 合并内存列表与 Store 中的列表；Store 读取失败时只使用内存列表。
func (f *Blocklist) load(ctx context.Context, rctx *core.RecommendContext) map[string]struct{} {
	set := make(map[string]struct{}, len(f.Entries))
	add := func(entries []string) {
		for _, e := range entries {
			e = strings.TrimSpace(e)
			if title, ok := strings.CutPrefix(e, titlePrefix); ok {
				if title = strings.TrimSpace(title); title != "" {
					set[blockKey(title)] = struct{}{}
				}
				continue
			}
			if e != "" {
				set[e] = struct{}{}
				set[blockKey(e)] = struct{}{}
			}
		}
	}
	add(f.Entries)

	if f.Store == nil || rctx.ReaderID == "" {
		return set
	}
	prefix := f.KeyPrefix
	if prefix == "" {
		prefix = "reader:block"
	}
	ids, err := f.Store.GetBlocklist(ctx, prefix+":"+rctx.ReaderID)
	if err != nil {
		rctx.Log().Warn("load blocklist", zap.String("reader", rctx.ReaderID), zap.Error(err))
		return set
	}
	add(ids)
	return set
}

// titlePrefix 标记按标题屏蔽的条目，其余条目按 externalId 屏蔽（同时也按标题匹配）。
const titlePrefix = "title:"

func blockKey(s string) string {
	return titlePrefix + strings.ToLower(strings.TrimSpace(s))
}
