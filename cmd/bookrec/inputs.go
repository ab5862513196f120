package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rushteam/bookrec"
	"github.com/rushteam/bookrec/catalog"
	"github.com/rushteam/bookrec/config"
	"github.com/rushteam/bookrec/config/builders"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/filter"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/source"
	"github.com/rushteam/bookrec/store"
)

// runFlags 是 recommend 与 analyze 共用的输入参数。
type runFlags struct {
	reader    string
	ownedPath string
	catalog   string
	poolPath  string
	queries   []string
	language  string
	timeout   time.Duration

	cache     string
	redisAddr string
	redisDB   int
	cacheTTL  int
}

func (f *runFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.reader, "reader", "", "Reader ID (catalog lookup and blocklist)")
	fl.StringVar(&f.ownedPath, "owned", "", "JSON file with the reader's owned books")
	fl.StringVar(&f.catalog, "catalog", "", "SQLite catalog with owned books")
	fl.StringVar(&f.poolPath, "pool", "", "JSON file with candidate books")
	fl.StringArrayVarP(&f.queries, "query", "q", nil, "Search query for candidates (repeatable)")
	fl.StringVar(&f.language, "lang", "ja", "Google Books langRestrict (empty for none)")
	fl.DurationVar(&f.timeout, "timeout", 10*time.Second, "Per-query timeout")
	fl.StringVar(&f.cache, "cache", "", "Candidate/blocklist store: memory or redis (empty disables)")
	fl.StringVar(&f.redisAddr, "redis-addr", "", "Redis address (defaults to BOOKREC_REDIS_ADDR)")
	fl.IntVar(&f.redisDB, "redis-db", 0, "Redis database")
	fl.IntVar(&f.cacheTTL, "cache-ttl", 3600, "Candidate cache TTL in seconds")
	cmd.MarkFlagsMutuallyExclusive("owned", "catalog")
}

func (f *runFlags) openStore() (core.Store, error) {
	if f.cache == "" {
		return nil, nil
	}
	addr := f.redisAddr
	if addr == "" {
		addr = envOr("BOOKREC_REDIS_ADDR", "localhost:6379")
	}
	return store.Open(store.Config{Backend: f.cache, Addr: addr, DB: f.redisDB})
}

func (f *runFlags) loadOwned(ctx context.Context) ([]core.BookRecord, error) {
	var p catalog.OwnedProvider
	switch {
	case f.catalog != "":
		db, err := catalog.Open(f.catalog)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		p = db
	case f.ownedPath != "":
		p = &catalog.JSONFile{Path: f.ownedPath}
	default:
		return nil, core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, "one of --owned or --catalog is required")
	}
	return p.OwnedBooks(ctx, f.reader)
}

// loadPool 没有查询时直接读取整个 --pool 文件；有查询时按查询并发检索
// （--pool 文件或 Google Books），可选缓存。
func (f *runFlags) loadPool(ctx context.Context, st core.Store) ([]core.BookRecord, error) {
	if len(f.queries) == 0 {
		if f.poolPath == "" {
			return nil, core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, "one of --pool or --query is required")
		}
		return source.ReadBooks(f.poolPath)
	}

	var p source.Provider
	if f.poolPath != "" {
		p = &source.File{Path: f.poolPath}
	} else {
		p = source.NewGoogleBooks(
			source.WithAPIKey(os.Getenv("GOOGLE_BOOKS_API_KEY")),
			source.WithLanguage(f.language),
		)
	}
	if st != nil {
		p = source.NewCached(p, st, f.cacheTTL)
	}
	fan := &source.Fanout{
		Providers:     []source.Provider{p},
		Timeout:       f.timeout,
		MaxConcurrent: 3,
		Logger:        logger,
	}
	return fan.Collect(ctx, f.queries)
}

// newEngine 加载引擎配置；指定 pipelinePath 时按配置构建 Node 链。
func newEngine(pipelinePath string, st core.Store, hooks ...pipeline.Hook) (*bookrec.Engine, error) {
	cfg := bookrec.DefaultConfig()
	if configPath != "" {
		c, err := bookrec.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	opts := []bookrec.Option{bookrec.WithLogger(logger), bookrec.WithHooks(hooks...)}
	if st != nil {
		opts = append(opts, bookrec.WithStore(st))
	}

	if pipelinePath != "" {
		if st != nil {
			adapter := filter.NewStoreAdapter(st)
			config.Register("filter.blocklist", func(c map[string]any) (pipeline.Node, error) {
				return builders.BlocklistNode(c, adapter), nil
			})
		}
		pc, err := pipeline.LoadFromYAML(pipelinePath)
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, "load pipeline", err)
		}
		if err := config.ValidatePipelineConfig(pc); err != nil {
			return nil, core.WrapDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, "validate pipeline", err)
		}
		p, err := pc.BuildPipeline(config.DefaultFactory())
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, "build pipeline", err)
		}
		logger.Debug("pipeline loaded", zap.String("name", pc.Pipeline.Name), zap.Int("nodes", len(p.Nodes)))
		opts = append(opts, bookrec.WithPipeline(p))
	}
	e, err := bookrec.New(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	return e, nil
}
