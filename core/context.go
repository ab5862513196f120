package core

import (
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"
)

// RecommendContext 承载一次推荐调用的全部输入，贯穿整个 Pipeline 透传。
// 每次调用新建，不在调用之间共享。
type RecommendContext struct {
	RunID    string
	ReaderID string

	// Owned 是读者已拥有的书，顺序即语料前缀顺序。
	Owned []BookRecord

	// Pool 是外部候选池，顺序即语料中 Owned 之后的顺序。
	Pool []BookRecord

	// Rand 是多样性选择使用的随机源；为 nil 时按无随机处理。
	Rand *rand.Rand

	Logger *zap.Logger

	// Labels 是请求级标签，例如 "short_circuit"。
	Labels map[string]Label

	memoMu sync.Mutex
	memo   map[string]any
}

// OwnedCount 是语料中已拥有书的数量，即候选下标的起点。
func (rctx *RecommendContext) OwnedCount() int {
	return len(rctx.Owned)
}

// Books 返回语料顺序的完整书目：Owned 在前，Pool 在后，并打上来源标记。
func (rctx *RecommendContext) Books() []BookRecord {
	out := make([]BookRecord, 0, len(rctx.Owned)+len(rctx.Pool))
	for _, b := range rctx.Owned {
		out = append(out, b.WithProvenance(ProvenanceOwned))
	}
	for _, b := range rctx.Pool {
		out = append(out, b.WithProvenance(ProvenanceCandidate))
	}
	return out
}

// Log 返回可用的 logger；未设置时返回 Nop。
func (rctx *RecommendContext) Log() *zap.Logger {
	if rctx == nil || rctx.Logger == nil {
		return zap.NewNop()
	}
	return rctx.Logger
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (Label, bool) {
	if rctx.Labels == nil {
		return Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// Memo 在一次调用内缓存按 key 派生的数据（如已拥有书的标题集合），
// 同一 key 只构建一次。
func Memo[T any](rctx *RecommendContext, key string, build func() T) T {
	rctx.memoMu.Lock()
	defer rctx.memoMu.Unlock()
	if rctx.memo == nil {
		rctx.memo = make(map[string]any)
	}
	if v, ok := rctx.memo[key]; ok {
		if t, ok := v.(T); ok {
			return t
		}
	}
	t := build()
	rctx.memo[key] = t
	return t
}
