package recall

import (
	"context"
	"testing"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/vector"
)

func TestContent_Process(t *testing.T) {
	rctx := &core.RecommendContext{
		Owned: []core.BookRecord{
			{Title: "Dragon Quest", Description: "sword magic adventure", Rating: core.Float(5)},
		},
		Pool: []core.BookRecord{
			{Title: "Magic Sword", Description: "sword magic journey"},
			{Title: "Cooking Basics", Description: "recipes kitchen"},
		},
	}
	out, err := NewContent().Process(context.Background(), rctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatalf("len(out) = %d, want one candidate per corpus row", len(out))
	}
	if out[0].Index != 0 || out[1].Index != 1 || out[2].Index != 2 {
		t.Errorf("order = %d,%d,%d, want 0,1,2", out[0].Index, out[1].Index, out[2].Index)
	}
	if out[1].Book.Provenance != core.ProvenanceCandidate || out[0].Book.Provenance != core.ProvenanceOwned {
		t.Error("provenance not set")
	}
	if out[2].Similarity != 0 {
		t.Errorf("unrelated similarity = %v, want 0", out[2].Similarity)
	}
	if lbl, ok := out[1].Label("recall_source"); !ok || lbl.Value != "content" {
		t.Errorf("recall_source label = %+v", lbl)
	}
}

func TestContent_NoOwnedBooksSkipsFit(t *testing.T) {
	rctx := &core.RecommendContext{Pool: []core.BookRecord{{Title: "a book"}}}
	r := NewContent()
	out, err := r.Process(context.Background(), rctx, nil)
	if err != nil || out != nil {
		t.Fatalf("Process = %v, %v; want nil, nil", out, err)
	}
	if r.Prepare(rctx) != nil {
		t.Error("no vector space should be fit without owned books")
	}
}

func TestContent_ZeroProfile(t *testing.T) {
	rctx := &core.RecommendContext{
		Owned: []core.BookRecord{{Title: "", Description: "orphan text"}},
		Pool:  []core.BookRecord{{Title: "Other", Description: "orphan text"}},
	}
	r := NewContent()
	out, _ := r.Process(context.Background(), rctx, nil)
	if len(out) != 0 {
		t.Fatalf("len(out) = %d, want 0", len(out))
	}
	res := r.Prepare(rctx)
	if res == nil || !res.Profile.IsZero() || res.Space == nil {
		t.Errorf("Prepare = %+v, want fitted space and zero profile", res)
	}
}

func TestContent_PrepareIsMemoized(t *testing.T) {
	rctx := &core.RecommendContext{
		Owned: []core.BookRecord{{Title: "alpha beta"}},
		Pool:  []core.BookRecord{{Title: "beta gamma"}},
	}
	r := &Content{UseTitle: true, Options: vector.DefaultOptions()}
	if r.Prepare(rctx) != r.Prepare(rctx) {
		t.Error("Prepare should return the cached result within one context")
	}
}
