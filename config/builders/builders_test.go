package builders_test

import (
	"context"
	"strings"
	"testing"

	"github.com/rushteam/bookrec"
	"github.com/rushteam/bookrec/config"
	_ "github.com/rushteam/bookrec/config/builders"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/rerank"
)

const pipelineYAML = `
pipeline:
  name: books
  nodes:
    - type: recall.content
      config:
        use_title: true
    - type: filter
      config:
        name: filter.candidate
        filters:
          - type: self_match
          - type: missing_title
          - type: owned_title
          - type: owned_series
          - type: blocklist
            entries: ["title:cooking basics"]
    - type: filter.series_dedup
    - type: rank.hybrid
      config:
        weights:
          textual: 1
        min_score: 0.01
    - type: rerank.topn
      config:
        n: 50
    - type: rerank.diversity
      config:
        requested_count: 2
    - type: postprocess.format
      config:
        reasons:
          - expr: "signals.textual > 0.0"
            text: "shares themes"
`

func TestBuildPipelineFromYAML(t *testing.T) {
	cfg, err := pipeline.ParseYAML([]byte(pipelineYAML))
	if err != nil {
		t.Fatal(err)
	}
	if err := config.ValidatePipelineConfig(cfg); err != nil {
		t.Fatal(err)
	}
	p, err := cfg.BuildPipeline(config.DefaultFactory())
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Nodes) != 7 {
		t.Fatalf("nodes = %d, want 7", len(p.Nodes))
	}
	if p.Nodes[1].Name() != "filter.candidate" {
		t.Errorf("filter name = %q", p.Nodes[1].Name())
	}
	if d, ok := p.Nodes[5].(*rerank.Diversity); !ok || d.RequestedCount != 2 || d.DiversityFactor != 1 {
		t.Errorf("diversity = %#v", p.Nodes[5])
	}

	e, err := bookrec.New(bookrec.DefaultConfig(), bookrec.WithPipeline(p))
	if err != nil {
		t.Fatal(err)
	}
	owned := []core.BookRecord{{Title: "Sea Stories vol.1", Description: "pirate ocean treasure"}}
	pool := []core.BookRecord{
		{Title: "Sea Stories vol.2", Description: "pirate ocean crew"},
		{Title: "Treasure Island", Description: "pirate treasure map"},
		{Title: "Cooking Basics", Description: "pirate kitchen"},
		{Title: "Ocean Life", Description: "ocean fish"},
	}
	recs := e.Recommend(context.Background(), owned, pool)
	if len(recs) == 0 || len(recs) > 2 {
		t.Fatalf("recs = %v", recs)
	}
	for _, r := range recs {
		if strings.HasPrefix(r.Title, "Sea Stories") || r.Title == "Cooking Basics" {
			t.Errorf("%q should have been filtered", r.Title)
		}
	}
	if recs[0].Title != "Treasure Island" || recs[0].Reason != "shares themes" {
		t.Errorf("top = %+v", recs[0])
	}
}

func TestValidatePipelineConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"empty", "pipeline:\n  name: x\n", "no nodes"},
		{"unknown", "pipeline:\n  nodes:\n    - type: recall.content\n    - type: rank.lr\n", "unsupported node type"},
		{"missing type", "pipeline:\n  nodes:\n    - config: {}\n", "missing type"},
		{"recall first", "pipeline:\n  nodes:\n    - type: rank.hybrid\n", "recall node"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := pipeline.ParseYAML([]byte(tt.yaml))
			if err != nil {
				t.Fatal(err)
			}
			err = config.ValidatePipelineConfig(cfg)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestBuilders_InvalidConfig(t *testing.T) {
	f := config.DefaultFactory()
	tests := []struct {
		typ string
		cfg map[string]any
	}{
		{"filter", map[string]any{}},
		{"filter", map[string]any{"filters": []any{map[string]any{"type": "exposed"}}}},
		{"rank.hybrid", map[string]any{"min_score": -1}},
		{"rerank.diversity", map[string]any{"requested_count": 0}},
		{"rerank.diversity", map[string]any{"randomness": 2.0}},
		{"recall.content", map[string]any{"max_df": 1.5}},
		{"recall.content", map[string]any{"tables": "/nonexistent/tables.yaml"}},
	}
	for _, tt := range tests {
		if _, err := f.Build(tt.typ, tt.cfg); err == nil {
			t.Errorf("%s %v: expected error", tt.typ, tt.cfg)
		}
	}
}

func TestSupportedTypes(t *testing.T) {
	got := strings.Join(config.SupportedTypes(), ",")
	for _, want := range []string{"filter", "filter.series_dedup", "postprocess.format", "rank.hybrid", "recall.content", "rerank.diversity", "rerank.topn"} {
		if !strings.Contains(got, want) {
			t.Errorf("%q not registered (have %s)", want, got)
		}
	}
}
