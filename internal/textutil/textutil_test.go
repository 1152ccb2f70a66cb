package textutil

import (
	"math"
	"testing"
)

func TestClean(t *testing.T) {
	got := Clean("  What's the FEE?!  ")
	want := "what s the fee"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestKeywordsFiltersStopWords(t *testing.T) {
	got := Keywords("What are the fees for the engineering program?")
	want := []string{"fees", "engineering", "program"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
			break
		}
	}
}

func TestKeywordsDropShortWords(t *testing.T) {
	for _, kw := range Keywords("go to it") {
		if len(kw) < 3 {
			t.Errorf("keyword %q shorter than 3 chars", kw)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if s := Similarity("engineering fees", "engineering fees"); s != 1.0 {
		t.Errorf("identical texts: expected 1.0, got %v", s)
	}
	if s := Similarity("engineering fees", "campus parking"); s != 0.0 {
		t.Errorf("disjoint texts: expected 0.0, got %v", s)
	}
	if s := Similarity("", "anything"); s != 0.0 {
		t.Errorf("empty text: expected 0.0, got %v", s)
	}

	// One keyword shared out of three total.
	s := Similarity("engineering fees", "engineering campus")
	if math.Abs(s-1.0/3.0) > 1e-9 {
		t.Errorf("expected 1/3, got %v", s)
	}
}

func TestMatchingKeywords(t *testing.T) {
	got := MatchingKeywords([]string{"fee", "engineering"}, []string{"fees", "campus"})
	// "fee" is a substring of "fees".
	if len(got) != 1 || got[0] != "fee" {
		t.Errorf("expected [fee], got %v", got)
	}

	if got := MatchingKeywords(nil, []string{"fees"}); got != nil {
		t.Errorf("expected nil for empty query keywords, got %v", got)
	}
}

func TestMatchRatio(t *testing.T) {
	if r := MatchRatio("abc", "abc"); r != 1.0 {
		t.Errorf("identical: expected 1.0, got %v", r)
	}
	if r := MatchRatio("abc", "xyz"); r != 0.0 {
		t.Errorf("disjoint: expected 0.0, got %v", r)
	}
	if r := MatchRatio("", ""); r != 1.0 {
		t.Errorf("both empty: expected 1.0, got %v", r)
	}

	// Same blocks difflib reports for this pair.
	r := MatchRatio("what are the fees", "what are the fee")
	if r < 0.9 {
		t.Errorf("near-identical questions should score high, got %v", r)
	}
}
