package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rushteam/bookrec/catalog"
	"github.com/rushteam/bookrec/source"
)

var (
	importReader  string
	importCatalog string
)

var importCmd = &cobra.Command{
	Use:   "import <books.json>",
	Short: "Import owned books into a SQLite catalog",
	Long: `Import a JSON array of books into the catalog as the reader's owned books.
Existing records with the same ID are replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importReader, "reader", "", "Reader ID (required)")
	importCmd.Flags().StringVar(&importCatalog, "catalog", "bookrec.db", "SQLite catalog path")
	_ = importCmd.MarkFlagRequired("reader")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	books, err := source.ReadBooks(args[0])
	if err != nil {
		return err
	}
	db, err := catalog.Open(importCatalog)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := db.Import(cmd.Context(), importReader, books)
	if err != nil {
		return err
	}
	logger.Info("imported", zap.String("reader", importReader), zap.Int("books", n), zap.Int("skipped", len(books)-n))
	return outputJSON(ImportResponse{Reader: importReader, Imported: n})
}
