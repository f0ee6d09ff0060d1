package engine

import (
	"math"
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	cases := []struct {
		text string
		want []string
	}{
		{"I love hiking in the mountains!", []string{"love", "hiking", "the", "mountains"}},
		{"a an it of", nil},
		{"CamelCase and punct-uation", []string{"camelcase", "and", "punct", "uation"}},
		{"numbers 42 and 1234 count", []string{"numbers", "and", "1234", "count"}},
		{"", nil},
	}

	for _, tc := range cases {
		got := Tokenize(tc.text)
		if len(got) == 0 && len(tc.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestBM25ScoreEmpty(t *testing.T) {
	if got := bm25Score(nil, []string{"doc"}); got != 0 {
		t.Errorf("empty query score = %v, want 0", got)
	}
	if got := bm25Score([]string{"term"}, nil); got != 0 {
		t.Errorf("empty doc score = %v, want 0", got)
	}
}

func TestBM25ScoreNoOverlap(t *testing.T) {
	got := bm25Score([]string{"quantum"}, []string{"hiking", "mountains"})
	if got != 0 {
		t.Errorf("no-overlap score = %v, want 0", got)
	}
}

// A term appearing exactly once carries weight log(2/2) = 0; twice goes
// negative. The per-document pseudo-IDF makes single occurrences neutral.
func TestBM25ScorePseudoIDF(t *testing.T) {
	if got := bm25Score([]string{"paris"}, []string{"visited", "paris", "today"}); got != 0 {
		t.Errorf("single-occurrence score = %v, want 0", got)
	}
	if got := bm25Score([]string{"paris"}, []string{"paris", "paris", "trip"}); got >= 0 {
		t.Errorf("double-occurrence score = %v, want negative", got)
	}
}

func TestBM25ScoreFormula(t *testing.T) {
	// tf=2, dl=3: idf = ln(2/3), norm = 2 + 1.5*(0.25 + 0.75*3/50).
	idf := math.Log(2.0 / 3.0)
	want := idf * (2 * 2.5) / (2 + 1.5*(1-0.75+0.75*3.0/50.0))

	got := bm25Score([]string{"paris"}, []string{"paris", "paris", "trip"})
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("score = %v, want %v", got, want)
	}
}

func TestBM25ScoreDuplicateQueryTerms(t *testing.T) {
	doc := []string{"paris", "paris", "trip"}
	once := bm25Score([]string{"paris"}, doc)
	twice := bm25Score([]string{"paris", "paris"}, doc)
	if once != twice {
		t.Errorf("duplicate query terms must not double-count: %v vs %v", twice, once)
	}
}
