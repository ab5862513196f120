// Package store 提供 core.Store 的实现：进程内 MemoryStore 与 Redis 后端。
// 接口定义在 core 包，候选源缓存（source.Cached）与屏蔽列表（filter.Blocklist）基于它工作。
//
// 示例：
//
//	var s core.Store = store.NewMemoryStore()
package store

import (
	"fmt"

	"github.com/rushteam/bookrec/core"
)

// Config 选择缓存后端。
type Config struct {
	// Backend 为 memory 或 redis
	Backend string `yaml:"backend"`
	Addr    string `yaml:"addr"`
	DB      int    `yaml:"db"`
}

// Open 按配置创建 Store；Backend 为空时使用 memory。
func Open(cfg Config) (core.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(cfg.Addr, cfg.DB)
	default:
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeNotSupported,
			fmt.Sprintf("store: unknown backend %q", cfg.Backend))
	}
}
