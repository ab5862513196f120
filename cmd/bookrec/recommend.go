package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rushteam/bookrec/metrics"
)

var (
	recommendFlags runFlags
	pipelinePath   string
	metricsOut     string
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend books for a reader",
	Long: `Recommend books from a candidate pool.

Examples:
  bookrec recommend --owned owned.json --pool pool.json
  bookrec recommend --catalog books.db --reader r1 -q "one piece" -q "naruto" --cache redis`,
	Args: cobra.NoArgs,
	RunE: runRecommend,
}

func init() {
	recommendFlags.register(recommendCmd)
	recommendCmd.Flags().StringVar(&pipelinePath, "pipeline", "", "Pipeline YAML replacing the default node chain")
	recommendCmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write Prometheus metrics to this textfile after the run")
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	f := &recommendFlags

	st, err := f.openStore()
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	metrics.Register(prometheus.DefaultRegisterer)
	e, err := newEngine(pipelinePath, st, metrics.Hook{})
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
	logger.Info("recommend",
		zap.String("reader", f.reader),
		zap.Int("owned", len(owned)),
		zap.Int("pool", len(pool)),
	)

	recs := e.RecommendForReader(ctx, f.reader, owned, pool)

	if metricsOut != "" {
		if err := prometheus.WriteToTextfile(metricsOut, prometheus.DefaultGatherer); err != nil {
			logger.Warn("write metrics", zap.String("path", metricsOut), zap.Error(err))
		}
	}
	return outputJSON(recs)
}
