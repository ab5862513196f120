package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/store"
)

type stubProvider struct {
	name  string
	data  map[string][]core.BookRecord
	delay map[string]time.Duration
	fail  map[string]bool
	calls atomic.Int32
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Candidates(ctx context.Context, query string) ([]core.BookRecord, error) {
	s.calls.Add(1)
	if d := s.delay[query]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.fail[query] {
		return nil, errors.New("boom")
	}
	return s.data[query], nil
}

func titles(books []core.BookRecord) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.Title
	}
	return out
}

func TestFanout_Collect(t *testing.T) {
	p := &stubProvider{
		name: "stub",
		data: map[string][]core.BookRecord{
			"q1": {{ExternalID: "1", Title: "A"}, {Title: "B"}},
			"q2": {{ExternalID: "1", Title: "A again"}, {Title: "b "}, {ExternalID: "3", Title: "C"}},
		},
		// q1 比 q2 慢，结果顺序仍按查询顺序
		delay: map[string]time.Duration{"q1": 20 * time.Millisecond},
		fail:  map[string]bool{"q3": true},
	}
	f := &Fanout{Providers: []Provider{p}}

	got, err := f.Collect(context.Background(), []string{"q1", "q2", "q3"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"A", "B", "C"}
	if g := titles(got); len(g) != len(want) || g[0] != want[0] || g[1] != want[1] || g[2] != want[2] {
		t.Errorf("titles = %v, want %v", g, want)
	}
}

func TestFanout_AllFailed(t *testing.T) {
	p := &stubProvider{name: "stub", fail: map[string]bool{"q": true}}
	_, err := (&Fanout{Providers: []Provider{p}}).Collect(context.Background(), []string{"q"})
	if !core.IsUnavailable(err) {
		t.Fatalf("err = %v, want unavailable", err)
	}
}

func TestFanout_Timeout(t *testing.T) {
	p := &stubProvider{
		name:  "stub",
		data:  map[string][]core.BookRecord{"fast": {{Title: "F"}}},
		delay: map[string]time.Duration{"slow": time.Second},
	}
	f := &Fanout{Providers: []Provider{p}, Timeout: 10 * time.Millisecond, MaxConcurrent: 1}
	got, err := f.Collect(context.Background(), []string{"slow", "fast"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Title != "F" {
		t.Errorf("got %v", titles(got))
	}
}

func TestCached(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	defer mem.Close()

	p := &stubProvider{name: "stub", data: map[string][]core.BookRecord{
		"q": {{ExternalID: "1", Title: "A", Rating: core.Float(4)}},
	}}
	c := NewCached(p, mem, 60)

	for range 2 {
		got, err := c.Candidates(ctx, "Q ")
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].Rating == nil || *got[0].Rating != 4 {
			t.Fatalf("got %+v", got)
		}
		if _, err := c.Candidates(ctx, "q"); err != nil {
			t.Fatal(err)
		}
	}
	if n := p.calls.Load(); n != 1 {
		t.Errorf("provider called %d times, want 1", n)
	}
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.json")
	data := `[
		{"title": "Magic Quest", "authors": ["Author A"], "rating": "4.5"},
		{"title": "Cooking", "description": "kitchen magic", "rating": "n/a"},
		{"title": "History", "rating": null}
	]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	f := &File{Path: path}

	all, err := f.Candidates(context.Background(), "")
	if err != nil || len(all) != 3 {
		t.Fatalf("all = %v, %v", all, err)
	}
	if all[0].Rating == nil || *all[0].Rating != 4.5 || all[1].Rating != nil || all[2].Rating != nil {
		t.Errorf("ratings not parsed loosely: %+v", all)
	}

	got, _ := f.Candidates(context.Background(), "MAGIC")
	if len(got) != 2 {
		t.Errorf("query matched %v", titles(got))
	}

	_, err = (&File{Path: filepath.Join(t.TempDir(), "missing.json")}).Candidates(context.Background(), "")
	if !core.IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestGoogleBooks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "one piece" || r.URL.Query().Get("langRestrict") != "ja" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"id":"v1","volumeInfo":{"title":"ONE PIECE 1","authors":["尾田栄一郎"],"averageRating":4.5,
			 "imageLinks":{"thumbnail":"http://img/1"},"categories":["Comics"]}},
			{"id":"v2","volumeInfo":{"title":"ONE PIECE 2"}}
		]}`))
	}))
	defer srv.Close()

	g := NewGoogleBooks(WithBaseURL(srv.URL), WithRateLimit(1000))
	got, err := g.Candidates(context.Background(), "one piece")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ExternalID != "v1" || got[0].Image != "http://img/1" || *got[0].Rating != 4.5 {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Rating != nil {
		t.Errorf("missing averageRating should stay absent, got %v", *got[1].Rating)
	}

	if _, err := g.Candidates(context.Background(), "other"); !core.IsUnavailable(err) {
		t.Errorf("err = %v, want unavailable on HTTP 400", err)
	}
}
