// Package main provides the bookrec CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is set at build time via ldflags
var Version = "dev"

const (
	ExitSuccess     = 0
	ExitError       = 1
	ExitConfigError = 2
	ExitDataError   = 3
)

var (
	logLevel   string
	logFormat  string
	configPath string

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "bookrec",
	Short: "Content-based book recommendations",
	Long: `bookrec recommends books from a candidate pool based on the books a
reader already owns (TF-IDF similarity, author/genre/popularity signals,
series filtering and category diversity).

Owned books come from a SQLite catalog or a JSON file; candidates come
from a JSON file or Google Books. All commands print JSON to stdout.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(logFormat, logLevel)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	// .env 中可提供 GOOGLE_BOOKS_API_KEY、BOOKREC_REDIS_ADDR 等
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format: console or json")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Engine config YAML")
	rootCmd.Version = Version
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
