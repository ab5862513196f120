package main

import (
	"github.com/spf13/cobra"
)

var analyzeFlags runFlags

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Show vectorization diagnostics for a reader",
	Long: `Print corpus and vocabulary sizes, the reader profile's strongest
terms, normalized text of the first owned books, and how many candidates
score zero or above 0.05.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	analyzeFlags.register(analyzeCmd)
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	f := &analyzeFlags

	st, err := f.openStore()
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}
	e, err := newEngine("", nil)
	if err != nil {
		return err
	}
	owned, err := f.loadOwned(ctx)
	if err != nil {
		return err
	}
	pool, err := f.loadPool(ctx, st)
	if err != nil {
		return err
	}
	return outputJSON(e.Analyze(ctx, owned, pool))
}
