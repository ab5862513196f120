package text

import "testing"

func TestSeries_Key(t *testing.T) {
	s := NewSeries(nil)
	tests := []struct {
		title string
		want  string
	}{
		{"Series X vol.1", "series x"},
		{"Series X Vol. 2", "series x"},
		{"Series X 3", "series x"},
		{"ONE PIECE 1", "ワンピース"},
		{"ワンピース 第100巻", "ワンピース"},
		{"ワンピース 105巻 (ジャンプコミックス)", "ワンピース"},
		{"【カラー版】ナルト 3巻", "ナルト"},
		{"Naruto, Vol. 7", "ナルト"},
		{"Berserk Deluxe Edition Volume 2", "berserk"},
		{"Dune: Book 2", "dune"},
		{"The Expanse #4", "the expanse"},
		{"Foundation 2nd edition", "foundation"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := s.Key(tt.title); got != tt.want {
				t.Errorf("Key(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestSeries_KeyIdempotent(t *testing.T) {
	s := NewSeries(nil)
	inputs := []string{
		"Series X vol.1",
		"ワンピース 105巻 (ジャンプコミックス)",
		"Naruto, Vol. 7",
		"Almanac 1 2 3 4 5 6 7 8 9 10 11 12",
	}
	for _, in := range inputs {
		once := s.Key(in)
		if twice := s.Key(once); once != twice {
			t.Errorf("Key not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
	if got := s.Key("Almanac 1 2 3 4 5 6 7 8 9 10 11 12"); got != "almanac" {
		t.Errorf("Key = %q, want %q", got, "almanac")
	}
}

func TestSameSeries(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"equal", "series x", "series x", true},
		{"empty never matches", "", "", false},
		{"substring within ratio", "ワンピース", "ワンピース外伝", true},
		{"substring too long", "naruto", "naruto shippuden the movie", false},
		{"short key not merged", "abc", "abcd", false},
		{"four runes merged", "abcd", "abcde", true},
		{"unrelated", "bleach", "monster", false},
		{"ratio boundary excluded", "abcd", "abcdef", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameSeries(tt.a, tt.b); got != tt.want {
				t.Errorf("SameSeries(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := SameSeries(tt.b, tt.a); got != tt.want {
				t.Errorf("SameSeries(%q, %q) = %v, want %v (symmetry)", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestSeries_Same(t *testing.T) {
	s := NewSeries(nil)
	if !s.Same("one piece 3", "ワンピース 1巻") {
		t.Error("romanized and local titles should be the same series")
	}
	if s.Same("Monster 1", "Pluto 1") {
		t.Error("different series reported as same")
	}
}

func TestVolumeNumber(t *testing.T) {
	tests := []struct {
		title  string
		want   int
		wantOK bool
	}{
		{"ワンピース 1巻", 1, true},
		{"ワンピース 第12巻", 12, true},
		{"ナルト 一巻", 1, true},
		{"Bleach Vol. 3", 3, true},
		{"Saga #2", 2, true},
		{"Monster 18", 18, true},
		{"Monster", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			got, ok := VolumeNumber(tt.title)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("VolumeNumber(%q) = (%d, %v), want (%d, %v)", tt.title, got, ok, tt.want, tt.wantOK)
			}
		})
	}
	if !IsFirstVolume("Bleach vol.1") || IsFirstVolume("Bleach vol.2") {
		t.Error("IsFirstVolume mismatch")
	}
}
