package source

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/rushteam/bookrec/core"
)

// Cached 用 core.Store 缓存下游 Provider 的检索结果，key 为 {KeyPrefix}:{provider}:{sha1(query)}。
// 缓存读写失败不影响检索本身。
type Cached struct {
	Provider  Provider
	Store     core.Store
	TTL       int // 秒
	KeyPrefix string
}

func NewCached(p Provider, s core.Store, ttl int) *Cached {
	return &Cached{Provider: p, Store: s, TTL: ttl, KeyPrefix: "bookrec:candidates"}
}

func (c *Cached) Name() string { return c.Provider.Name() }

func (c *Cached) Candidates(ctx context.Context, query string) ([]core.BookRecord, error) {
	key := c.key(query)
	if data, err := c.Store.Get(ctx, key); err == nil {
		var books []core.BookRecord
		if err := json.Unmarshal(data, &books); err == nil {
			return books, nil
		}
	}

	books, err := c.Provider.Candidates(ctx, query)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(books); err == nil {
		_ = c.Store.Set(ctx, key, data, c.TTL)
	}
	return books, nil
}

func (c *Cached) key(query string) string {
	sum := sha1.Sum([]byte(strings.ToLower(strings.TrimSpace(query))))
	prefix := c.KeyPrefix
	if prefix == "" {
		prefix = "bookrec:candidates"
	}
	return prefix + ":" + c.Provider.Name() + ":" + hex.EncodeToString(sum[:])
}
