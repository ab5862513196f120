// Package metrics 暴露推荐链路的 Prometheus 指标，通过 pipeline.Hook 采集。
package metrics

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
)

// Pipeline Prometheus metrics.
var (
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookrec",
			Name:      "runs_total",
			Help:      "Total number of recommendation runs",
		},
		[]string{"status"}, // "ok" / "short_circuit" / "error"
	)

	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bookrec",
			Name:      "run_duration_seconds",
			Help:      "Recommendation run duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	RecommendationsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bookrec",
			Name:      "recommendations_returned",
			Help:      "Number of recommendations returned per run",
			Buckets:   []float64{0, 1, 3, 5, 10, 20, 50},
		},
	)

	ShortCircuitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookrec",
			Name:      "short_circuits_total",
			Help:      "Runs that ended early because a stage produced no items",
		},
		[]string{"stage"},
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bookrec",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"stage", "kind"},
	)

	StageDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookrec",
			Name:      "stage_dropped_total",
			Help:      "Candidates removed by a pipeline stage",
		},
		[]string{"stage"},
	)

	StageErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookrec",
			Name:      "stage_errors_total",
			Help:      "Pipeline stage errors",
		},
		[]string{"stage"},
	)
)

var registerOnce sync.Once

// Register 把指标注册到 reg；reg 为 nil 时使用默认 registry。只生效一次。
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(
			RunsTotal,
			RunDuration,
			RecommendationsReturned,
			ShortCircuitsTotal,
			StageDuration,
			StageDroppedTotal,
			StageErrorsTotal,
		)
	})
}

// Hook 是采集指标的 pipeline.Hook。
type Hook struct{}

var _ pipeline.Hook = Hook{}

func (Hook) AfterNode(_ context.Context, _ *core.RecommendContext, ev pipeline.NodeEvent) {
	StageDuration.WithLabelValues(ev.Name, string(ev.Kind)).Observe(ev.Duration.Seconds())
	if ev.Err != nil {
		StageErrorsTotal.WithLabelValues(ev.Name).Inc()
		return
	}
	// recall 阶段从零生成候选，不计入丢弃
	if ev.Kind != pipeline.KindRecall && ev.In > ev.Out {
		StageDroppedTotal.WithLabelValues(ev.Name).Add(float64(ev.In - ev.Out))
	}
}

func (Hook) AfterRun(_ context.Context, _ *core.RecommendContext, ev pipeline.RunEvent) {
	RunDuration.Observe(ev.Duration.Seconds())
	RecommendationsReturned.Observe(float64(ev.Out))
	switch {
	case ev.Err != nil:
		RunsTotal.WithLabelValues("error").Inc()
	case ev.ShortCircuit != "":
		RunsTotal.WithLabelValues("short_circuit").Inc()
		ShortCircuitsTotal.WithLabelValues(ev.ShortCircuit).Inc()
	default:
		RunsTotal.WithLabelValues("ok").Inc()
	}
}
