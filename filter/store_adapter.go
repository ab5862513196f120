package filter

import (
	"context"
	"encoding/json"

	"github.com/rushteam/bookrec/core"
)

// StoreAdapter 将 core.Store 适配为过滤器所需的存储接口。
type StoreAdapter struct {
	store core.Store
}

// NewStoreAdapter 创建一个 core.Store 适配器。
func NewStoreAdapter(s core.Store) *StoreAdapter {
	return &StoreAdapter{store: s}
}

// GetBlocklist 从 Store 读取屏蔽列表，值为 JSON 字符串数组。
// key 不存在时返回空列表。
func (a *StoreAdapter) GetBlocklist(ctx context.Context, key string) ([]string, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, core.WrapDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "decode blocklist "+key, err)
	}
	return ids, nil
}

// SetBlocklist 把屏蔽列表写入 Store。
func (a *StoreAdapter) SetBlocklist(ctx context.Context, key string, ids []string, ttl int) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, key, data, ttl)
}
