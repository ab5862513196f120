package main

import (
	"github.com/spf13/cobra"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/filter"
	"github.com/rushteam/bookrec/store"
)

var (
	blockReader    string
	blockPrefix    string
	blockTTL       int
	blockRedisAddr string
	blockRedisDB   int
)

var blockCmd = &cobra.Command{
	Use:   "block <externalId|title:...>...",
	Short: "Store a reader's blocklist in Redis",
	Long: `Replace the reader's blocklist. Entries are external IDs or "title:<title>".
recommend applies it when run with --reader and --cache redis; a custom
--pipeline must include filter.blocklist.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBlock,
}

func init() {
	blockCmd.Flags().StringVar(&blockReader, "reader", "", "Reader ID (required)")
	blockCmd.Flags().StringVar(&blockPrefix, "key-prefix", "reader:block", "Store key prefix")
	blockCmd.Flags().IntVar(&blockTTL, "ttl", 0, "TTL in seconds (0 keeps forever)")
	blockCmd.Flags().StringVar(&blockRedisAddr, "redis-addr", "", "Redis address (defaults to BOOKREC_REDIS_ADDR)")
	blockCmd.Flags().IntVar(&blockRedisDB, "redis-db", 0, "Redis database")
	_ = blockCmd.MarkFlagRequired("reader")
	rootCmd.AddCommand(blockCmd)
}

func runBlock(cmd *cobra.Command, args []string) error {
	addr := blockRedisAddr
	if addr == "" {
		addr = envOr("BOOKREC_REDIS_ADDR", "localhost:6379")
	}
	st, err := store.Open(store.Config{Backend: "redis", Addr: addr, DB: blockRedisDB})
	if err != nil {
		return err
	}
	defer st.Close()

	key := blockPrefix + ":" + blockReader
	if err := filter.NewStoreAdapter(st).SetBlocklist(cmd.Context(), key, args, blockTTL); err != nil {
		return core.WrapDomainError(core.ModuleStore, core.ErrorCodeUnavailable, "save blocklist", err)
	}
	return outputJSON(BlockResponse{Reader: blockReader, Key: key, Entries: args})
}
