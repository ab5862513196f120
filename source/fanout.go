package source

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/bookrec/core"
)

// Fanout 并发执行多个查询并合并结果。
// 合并顺序按 Providers 再按 queries 的顺序，与完成先后无关；
// 按 externalId（缺失时按标题）去重，保留第一次出现的记录。
type Fanout struct {
	Providers     []Provider
	Timeout       time.Duration // 每个查询的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
	Logger        *zap.Logger
}

// Collect 执行全部 (provider, query) 组合。单个查询失败只记录日志；
// 全部失败时返回 UNAVAILABLE。
func (f *Fanout) Collect(ctx context.Context, queries []string) ([]core.BookRecord, error) {
	if len(f.Providers) == 0 || len(queries) == 0 {
		return nil, nil
	}
	log := f.Logger
	if log == nil {
		log = zap.NewNop()
	}

	type job struct {
		p     Provider
		query string
	}
	jobs := make([]job, 0, len(f.Providers)*len(queries))
	for _, p := range f.Providers {
		for _, q := range queries {
			jobs = append(jobs, job{p: p, query: q})
		}
	}

	results := make([][]core.BookRecord, len(jobs))
	errs := make([]error, len(jobs))

	eg, egCtx := errgroup.WithContext(ctx)
	if f.MaxConcurrent > 0 {
		eg.SetLimit(f.MaxConcurrent)
	}
	for i, j := range jobs {
		eg.Go(func() error {
			qctx := egCtx
			if f.Timeout > 0 {
				var cancel context.CancelFunc
				qctx, cancel = context.WithTimeout(egCtx, f.Timeout)
				defer cancel()
			}
			books, err := j.p.Candidates(qctx, j.query)
			if err != nil {
				// 失败时返回空结果，不中断其他查询
				errs[i] = err
				log.Warn("candidate query failed",
					zap.String("provider", j.p.Name()),
					zap.String("query", j.query),
					zap.Error(err),
				)
				return nil
			}
			results[i] = books
			return nil
		})
	}
	_ = eg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed == len(jobs) {
		return nil, core.WrapDomainError(core.ModuleSource, core.ErrorCodeUnavailable, "all candidate queries failed", errs[0])
	}

	seen := make(map[string]struct{})
	var out []core.BookRecord
	for _, books := range results {
		for _, b := range books {
			k := dedupKey(b)
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, b)
		}
	}
	log.Debug("candidates collected",
		zap.Int("queries", len(jobs)),
		zap.Int("failed", failed),
		zap.Int("books", len(out)),
	)
	return out, nil
}
