package bookrec

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/filter"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/store"
)

func owned() []core.BookRecord {
	return []core.BookRecord{
		{
			Title:       "Series X vol.1",
			Description: "pirate adventure on the ocean searching treasure",
			Authors:     []string{"Oda"},
			Categories:  []string{"Comics"},
			Rating:      core.Float(5),
		},
	}
}

func pool() []core.BookRecord {
	return []core.BookRecord{
		{ExternalID: "p0", Title: "Series X vol.2", Description: "pirate adventure on the ocean with crew"},
		{ExternalID: "p1", Title: "Ocean Treasure Hunt", Description: "pirate ocean treasure map", Authors: []string{"Someone"}},
		{ExternalID: "p2", Title: "Series X vol.1", Description: "pirate adventure"},
		{ExternalID: "p3", Title: "Cooking Basics", Description: "kitchen recipes"},
		{ExternalID: "p4", Title: "Sketches", Description: "drawing art", Authors: []string{" oda "}},
		{ExternalID: "p5", Title: "", Description: "pirate ocean"},
		{ExternalID: "p6", Title: "Rated Voyage", Description: "ocean voyage", Rating: core.Float(4.5), Categories: []string{"comics"}},
	}
}

func newEngine(t *testing.T, mutate func(*Config), opts ...Option) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Seed = 1
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := New(cfg, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func byTitle(recs []core.Recommendation) map[string]core.Recommendation {
	out := make(map[string]core.Recommendation, len(recs))
	for _, r := range recs {
		out[r.Title] = r
	}
	return out
}

func TestRecommend_ExcludesOwnedTitlesAndSeries(t *testing.T) {
	recs := newEngine(t, nil).Recommend(context.Background(), owned(), pool())
	got := byTitle(recs)

	if _, ok := got["Series X vol.1"]; ok {
		t.Error("candidate with an owned title must be excluded")
	}
	if _, ok := got["Series X vol.2"]; ok {
		t.Error("same-series candidate must be excluded when filter_same_series is on")
	}
	if _, ok := got[""]; ok {
		t.Error("candidate without title must be excluded")
	}
	if _, ok := got["Ocean Treasure Hunt"]; !ok {
		t.Errorf("expected the textually similar candidate, got %v", recs)
	}
}

func TestRecommend_SameSeriesAllowedWhenFilterOff(t *testing.T) {
	e := newEngine(t, func(c *Config) { c.FilterSameSeries = false })
	got := byTitle(e.Recommend(context.Background(), owned(), pool()))
	r, ok := got["Series X vol.2"]
	if !ok {
		t.Fatal("same-series candidate should be allowed when filter_same_series is off")
	}
	if r.HybridScore < DefaultConfig().MinScore {
		t.Errorf("hybrid = %v below floor", r.HybridScore)
	}
}

func TestRecommend_OutputBoundAndUniqueTitles(t *testing.T) {
	p := pool()
	for i := range 3 {
		p = append(p, core.BookRecord{ExternalID: "dup" + string(rune('a'+i)), Title: "Dup Book", Description: "pirate treasure"})
	}
	for _, n := range []int{1, 2, 3, 10} {
		e := newEngine(t, func(c *Config) { c.RequestedCount = n })
		recs := e.Recommend(context.Background(), owned(), p)
		if len(recs) > n {
			t.Errorf("requested %d, got %d", n, len(recs))
		}
		seen := make(map[string]bool)
		for _, r := range recs {
			k := strings.ToLower(r.Title)
			if seen[k] {
				t.Errorf("duplicate title %q in %v", r.Title, recs)
			}
			seen[k] = true
		}
	}
}

func TestRecommend_Signals(t *testing.T) {
	got := byTitle(newEngine(t, nil).Recommend(context.Background(), owned(), pool()))

	sk, ok := got["Sketches"]
	if !ok {
		t.Fatal("author-sharing candidate missing")
	}
	if sk.SignalBreakdown.Author != 1.0 {
		t.Errorf("author signal = %v, want 1.0", sk.SignalBreakdown.Author)
	}
	if sk.SignalBreakdown.Popularity != 0.5 {
		t.Errorf("popularity without rating = %v, want 0.5", sk.SignalBreakdown.Popularity)
	}
	if !strings.Contains(sk.Reason, "same author") {
		t.Errorf("reason = %q", sk.Reason)
	}

	rv := got["Rated Voyage"]
	if rv.SignalBreakdown.Popularity != 0.9 || rv.Rating != 4.5 || rv.SignalBreakdown.Genre != 1 {
		t.Errorf("rated voyage = %+v", rv)
	}
}

type recordHook struct {
	mu   sync.Mutex
	runs []pipeline.RunEvent
}

func (h *recordHook) AfterNode(context.Context, *core.RecommendContext, pipeline.NodeEvent) {}
func (h *recordHook) AfterRun(_ context.Context, _ *core.RecommendContext, ev pipeline.RunEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs = append(h.runs, ev)
}

func TestRecommend_EmptyOwned(t *testing.T) {
	hook := &recordHook{}
	e := newEngine(t, nil, WithHooks(hook))
	recs := e.Recommend(context.Background(), nil, pool())
	if recs == nil || len(recs) != 0 {
		t.Fatalf("recs = %#v, want empty non-nil list", recs)
	}
	if len(hook.runs) != 1 || hook.runs[0].ShortCircuit != "recall.content" || hook.runs[0].Nodes != 1 {
		t.Errorf("runs = %+v, want short-circuit at recall", hook.runs)
	}
	if a := e.Analyze(context.Background(), nil, pool()); a.CorpusSize != 0 || a.VocabularySize != 0 {
		t.Errorf("no vector space should be fit, got %+v", a)
	}
}

func TestRecommend_TiesKeepIndexOrder(t *testing.T) {
	e := newEngine(t, func(c *Config) { c.UseTitleInCorpus = false })
	p := []core.BookRecord{
		{Title: "Beta Tale", Description: "ocean pirate treasure"},
		{Title: "Alpha Story", Description: "ocean pirate treasure"},
	}
	recs := e.Recommend(context.Background(), owned(), p)
	if len(recs) != 2 {
		t.Fatalf("recs = %v", recs)
	}
	if recs[0].HybridScore != recs[1].HybridScore {
		t.Fatalf("scores differ: %v vs %v", recs[0].HybridScore, recs[1].HybridScore)
	}
	if recs[0].Title != "Beta Tale" || recs[1].Title != "Alpha Story" {
		t.Errorf("order = %q, %q; want input order", recs[0].Title, recs[1].Title)
	}
}

func TestRecommend_SeededIsReproducible(t *testing.T) {
	mutate := func(c *Config) {
		c.Randomness = 0.5
		c.RequestedCount = 3
		c.Seed = 99
	}
	a := newEngine(t, mutate).Recommend(context.Background(), owned(), pool())
	b := newEngine(t, mutate).Recommend(context.Background(), owned(), pool())
	if len(a) != len(b) {
		t.Fatalf("%v != %v", a, b)
	}
	for i := range a {
		if a[i].Title != b[i].Title {
			t.Fatalf("run differs at %d: %q vs %q", i, a[i].Title, b[i].Title)
		}
	}
}

func TestRecommend_ConcurrentUse(t *testing.T) {
	e := newEngine(t, nil)
	want := len(e.Recommend(context.Background(), owned(), pool()))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := len(e.Recommend(context.Background(), owned(), pool())); got != want {
				t.Errorf("concurrent run returned %d, want %d", got, want)
			}
		}()
	}
	wg.Wait()
}

func TestRecommendForReader_StoredBlocklist(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	defer mem.Close()
	err := filter.NewStoreAdapter(mem).SetBlocklist(ctx, "reader:block:r1", []string{"title:Ocean Treasure Hunt", "p6"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	e := newEngine(t, nil, WithStore(mem))

	got := byTitle(e.RecommendForReader(ctx, "r1", owned(), pool()))
	for _, title := range []string{"Ocean Treasure Hunt", "Rated Voyage"} {
		if _, ok := got[title]; ok {
			t.Errorf("%q is on r1's blocklist", title)
		}
	}
	if _, ok := got["Sketches"]; !ok {
		t.Errorf("unblocked candidate missing: %v", got)
	}

	other := byTitle(e.RecommendForReader(ctx, "r2", owned(), pool()))
	if _, ok := other["Ocean Treasure Hunt"]; !ok {
		t.Error("r2 has no blocklist and should see the candidate")
	}
}

func TestRecommend_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if recs := newEngine(t, nil).Recommend(ctx, owned(), pool()); len(recs) != 0 {
		t.Errorf("recs = %v, want empty", recs)
	}
}

func TestAnalyze(t *testing.T) {
	a := newEngine(t, nil).Analyze(context.Background(), owned(), pool())
	if a.CorpusSize != 8 {
		t.Errorf("CorpusSize = %d, want 8", a.CorpusSize)
	}
	if a.SpaceMode != "standard" || a.VocabularySize == 0 || a.ProfileDims != a.VocabularySize {
		t.Errorf("space = %+v", a)
	}
	if a.MatchedOwned != 1 || len(a.OwnedSamples) != 1 {
		t.Errorf("owned = %+v", a)
	}
	if s := a.OwnedSamples[0]; s.Title != "Series X vol.1" || !strings.Contains(s.Text, "treasure") {
		t.Errorf("sample = %+v", s)
	}
	if len(a.TopFeatures) == 0 || len(a.TopFeatures) > 10 {
		t.Errorf("top features = %v", a.TopFeatures)
	}
	if a.ZeroScoreCount == 0 || a.HighScoreCount == 0 {
		t.Errorf("zero=%d high=%d", a.ZeroScoreCount, a.HighScoreCount)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequestedCount = 0
	if _, err := New(cfg); !core.IsInvalidInput(err) {
		t.Errorf("err = %v, want invalid input", err)
	}
}
