package vector

import (
	"math"
	"testing"

	"github.com/rushteam/bookrec/core"
)

func fixture() (*Space, *Corpus) {
	space := &Space{
		Vocabulary: []string{"a", "b"},
		Vectors:    [][]float64{{1, 0}, {0, 1}, {1, 1}},
		Mode:       ModeStandard,
	}
	corpus := &Corpus{
		Texts:      []string{"a", "b", "a b"},
		Docs:       []Document{{Title: "Alpha"}, {Title: "Beta"}, {Title: "Gamma"}},
		OwnedCount: 2,
	}
	return space, corpus
}

func TestBuildProfile_WeightedMean(t *testing.T) {
	space, corpus := fixture()
	owned := []core.BookRecord{
		{Title: "ALPHA ", Rating: core.Float(5)},
		{Title: "beta"}, // 缺失评分按 3.0
	}
	p := BuildProfile(space, corpus, owned)
	want := []float64{1.0 / 1.6, 0.6 / 1.6}
	for j := range want {
		if math.Abs(p[j]-want[j]) > 1e-12 {
			t.Fatalf("profile = %v, want %v", p, want)
		}
	}
}

func TestBuildProfile_NonPositiveRatingUsesDefault(t *testing.T) {
	space, corpus := fixture()
	a := BuildProfile(space, corpus, []core.BookRecord{{Title: "Alpha", Rating: core.Float(-1)}, {Title: "Beta", Rating: core.Float(3)}})
	if math.Abs(a[0]-a[1]) > 1e-12 {
		t.Errorf("profile = %v, want equal weights", a)
	}
}

func TestBuildProfile_NoMatch(t *testing.T) {
	space, corpus := fixture()
	p := BuildProfile(space, corpus, []core.BookRecord{{Title: "Unknown"}, {Title: ""}})
	if len(p) != 2 || !p.IsZero() {
		t.Errorf("profile = %v, want zero vector of dim 2", p)
	}
}

func TestBuildProfile_NoSpace(t *testing.T) {
	p := BuildProfile(nil, nil, []core.BookRecord{{Title: "Alpha"}})
	if len(p) != fallbackProfileDim || !p.IsZero() {
		t.Errorf("profile = %v, want zero vector of dim %d", p, fallbackProfileDim)
	}
}

func TestMatchOwned_FirstMatchWins(t *testing.T) {
	corpus := &Corpus{Docs: []Document{{Title: "Dup"}, {Title: "dup"}, {Title: "Other"}}}
	m := MatchOwned(corpus, []core.BookRecord{{Title: "DUP", Rating: core.Float(4)}})
	if len(m) != 1 || m[0].Index != 0 || m[0].Weight != 0.8 {
		t.Errorf("MatchOwned = %+v", m)
	}
}

func TestTopTerms(t *testing.T) {
	space := &Space{Vocabulary: []string{"x", "y", "z"}}
	got := TopTerms(space, Profile{0.2, 0, 0.5}, 10)
	if len(got) != 2 || got[0].Term != "z" || got[1].Term != "x" {
		t.Errorf("TopTerms = %+v", got)
	}
}

func TestRank(t *testing.T) {
	space := &Space{
		Vocabulary: []string{"a", "b"},
		Vectors:    [][]float64{{1, 0}, {0, 1}, {2, 0}},
	}
	scores := Rank(space, Profile{1, 0})
	wantOrder := []int{0, 2, 1}
	if len(scores) != 3 {
		t.Fatalf("len = %d, want 3", len(scores))
	}
	for i, idx := range wantOrder {
		if scores[i].Index != idx {
			t.Fatalf("order = %+v, want indices %v", scores, wantOrder)
		}
	}
	if scores[0].Value != 1 || scores[1].Value != 1 || scores[2].Value != 0 {
		t.Errorf("values = %+v", scores)
	}
}

func TestRank_Degenerate(t *testing.T) {
	space, _ := fixture()
	if got := Rank(space, Profile{0, 0}); got != nil {
		t.Errorf("zero profile: got %v, want nil", got)
	}
	if got := Rank(nil, Profile{1}); got != nil {
		t.Errorf("nil space: got %v, want nil", got)
	}
	if got := Rank(space, Profile{}); got != nil {
		t.Errorf("empty profile: got %v, want nil", got)
	}
}

func TestCosine(t *testing.T) {
	if got := Cosine([]float64{1, 1}, []float64{1, 1}); math.Abs(got-1) > 1e-12 {
		t.Errorf("Cosine(identical) = %v", got)
	}
	if got := Cosine([]float64{0, 0}, []float64{1, 1}); got != 0 {
		t.Errorf("Cosine(zero) = %v", got)
	}
	if got := Cosine([]float64{1}, []float64{1, 1}); got != 0 {
		t.Errorf("Cosine(mismatched) = %v", got)
	}
}
