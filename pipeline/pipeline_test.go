package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/bookrec/core"
)

type stubNode struct {
	name  string
	calls *[]string
	fn    func([]*core.Candidate) ([]*core.Candidate, error)
}

func (n stubNode) Name() string { return n.name }
func (n stubNode) Kind() Kind   { return KindFilter }
func (n stubNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Candidate) ([]*core.Candidate, error) {
	*n.calls = append(*n.calls, n.name)
	return n.fn(items)
}

type recordHook struct {
	nodes []NodeEvent
	runs  []RunEvent
}

func (h *recordHook) AfterNode(_ context.Context, _ *core.RecommendContext, ev NodeEvent) {
	h.nodes = append(h.nodes, ev)
}

func (h *recordHook) AfterRun(_ context.Context, _ *core.RecommendContext, ev RunEvent) {
	h.runs = append(h.runs, ev)
}

func pass(items []*core.Candidate) ([]*core.Candidate, error) { return items, nil }

func TestPipelineRun(t *testing.T) {
	seed := []*core.Candidate{core.NewCandidate(1, core.BookRecord{Title: "a"}, 0.5)}

	tests := []struct {
		name      string
		nodes     func(calls *[]string) []Node
		wantCalls []string
		wantOut   int
		wantErr   bool
		wantShort string
	}{
		{
			name: "runs in order",
			nodes: func(calls *[]string) []Node {
				return []Node{
					stubNode{name: "a", calls: calls, fn: pass},
					stubNode{name: "b", calls: calls, fn: pass},
				}
			},
			wantCalls: []string{"a", "b"},
			wantOut:   1,
		},
		{
			name: "short-circuits on empty",
			nodes: func(calls *[]string) []Node {
				return []Node{
					stubNode{name: "a", calls: calls, fn: func([]*core.Candidate) ([]*core.Candidate, error) { return nil, nil }},
					stubNode{name: "b", calls: calls, fn: pass},
				}
			},
			wantCalls: []string{"a"},
			wantShort: "a",
		},
		{
			name: "stops on error",
			nodes: func(calls *[]string) []Node {
				return []Node{
					stubNode{name: "a", calls: calls, fn: func([]*core.Candidate) ([]*core.Candidate, error) { return nil, errors.New("boom") }},
					stubNode{name: "b", calls: calls, fn: pass},
				}
			},
			wantCalls: []string{"a"},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []string
			hook := &recordHook{}
			p := &Pipeline{Nodes: tt.nodes(&calls), Hooks: []Hook{hook, LogHook{}}}
			rctx := &core.RecommendContext{}

			out, err := p.Run(context.Background(), rctx, seed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(out) != tt.wantOut {
				t.Errorf("len(out) = %d, want %d", len(out), tt.wantOut)
			}
			if len(calls) != len(tt.wantCalls) {
				t.Fatalf("calls = %v, want %v", calls, tt.wantCalls)
			}
			for i := range calls {
				if calls[i] != tt.wantCalls[i] {
					t.Fatalf("calls = %v, want %v", calls, tt.wantCalls)
				}
			}
			if len(hook.nodes) != len(tt.wantCalls) || len(hook.runs) != 1 {
				t.Fatalf("hook saw %d nodes / %d runs", len(hook.nodes), len(hook.runs))
			}
			if hook.runs[0].ShortCircuit != tt.wantShort {
				t.Errorf("ShortCircuit = %q, want %q", hook.runs[0].ShortCircuit, tt.wantShort)
			}
			if tt.wantShort != "" {
				if lbl, ok := rctx.GetLabel("short_circuit"); !ok || lbl.Value != tt.wantShort {
					t.Errorf("short_circuit label = %+v", lbl)
				}
			}
		})
	}
}

func TestPipelineRun_CanceledContext(t *testing.T) {
	var calls []string
	p := &Pipeline{Nodes: []Node{stubNode{name: "a", calls: &calls, fn: pass}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Run(ctx, &core.RecommendContext{}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(calls) != 0 {
		t.Errorf("node ran after cancel: %v", calls)
	}
}

func TestConfigBuildPipeline(t *testing.T) {
	cfg, err := ParseYAML([]byte(`
pipeline:
  name: test
  nodes:
    - type: stub
      config:
        name: first
    - type: stub
`))
	if err != nil {
		t.Fatal(err)
	}
	var calls []string
	f := NewNodeFactory()
	f.Register("stub", func(m map[string]any) (Node, error) {
		name, _ := m["name"].(string)
		return stubNode{name: name, calls: &calls, fn: pass}, nil
	})
	p, err := cfg.BuildPipeline(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Nodes) != 2 || p.Nodes[0].Name() != "first" {
		t.Errorf("nodes = %+v", p.Nodes)
	}

	cfg.Pipeline.Nodes = append(cfg.Pipeline.Nodes, NodeConfig{Type: "missing"})
	if _, err := cfg.BuildPipeline(f); err == nil {
		t.Error("expected error for unknown node type")
	}
}
