package score_test

import (
	"testing"

	"recite/score"
)

func TestSimilarityIdentical(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"a", "hello world", "the quick brown fox."} {
		if got := score.Similarity(s, s); got != 100 {
			t.Errorf("Similarity(%q, %q) = %d, want 100", s, s, got)
		}
	}
}

func TestSimilarityBothEmpty(t *testing.T) {
	t.Parallel()

	if got := score.Similarity("", ""); got != 100 {
		t.Errorf("Similarity(\"\", \"\") = %d, want 100", got)
	}
	// Whitespace-only inputs normalize to empty as well.
	if got := score.Similarity("   ", "\t\n"); got != 100 {
		t.Errorf("Similarity(whitespace) = %d, want 100", got)
	}
}

func TestSimilarityCaseInsensitive(t *testing.T) {
	t.Parallel()

	if a, b := score.Similarity("abc", "abd"), score.Similarity("ABC", "ABD"); a != b {
		t.Errorf("case sensitivity: %d != %d", a, b)
	}
	if got := score.Similarity("Hello World", "hello world"); got != 100 {
		t.Errorf("Similarity mixed case = %d, want 100", got)
	}
}

func TestSimilarityTrimsSurroundingWhitespace(t *testing.T) {
	t.Parallel()

	if got := score.Similarity("  abc  ", "abc"); got != 100 {
		t.Errorf("Similarity(\"  abc  \", \"abc\") = %d, want 100", got)
	}
}

func TestSimilarityInternalWhitespaceSignificant(t *testing.T) {
	t.Parallel()

	// "ab c" vs "abc": one deletion out of maxLen 4 -> 75.
	if got := score.Similarity("ab c", "abc"); got != 75 {
		t.Errorf("Similarity(\"ab c\", \"abc\") = %d, want 75", got)
	}
}

func TestSimilarityKittenSitting(t *testing.T) {
	t.Parallel()

	// Classic distance 3 over maxLen 7: round(100*4/7) = 57.
	if got := score.Similarity("kitten", "sitting"); got != 57 {
		t.Errorf("Similarity(kitten, sitting) = %d, want 57", got)
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{
		{"kitten", "sitting"},
		{"", "abc"},
		{"the quick brown fox", "the quick brwon fox"},
		{"a", "zzzzzz"},
	}
	for _, p := range pairs {
		ab := score.Similarity(p[0], p[1])
		ba := score.Similarity(p[1], p[0])
		if ab != ba {
			t.Errorf("Similarity(%q, %q) = %d but reversed = %d", p[0], p[1], ab, ba)
		}
	}
}

func TestSimilarityOneEmpty(t *testing.T) {
	t.Parallel()

	if got := score.Similarity("abcd", ""); got != 0 {
		t.Errorf("Similarity(\"abcd\", \"\") = %d, want 0", got)
	}
}

func TestSimilarityTable(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		ref, cand string
		want      int
	}{
		{"flaw", "lawn", 50},                     // distance 2 over 4
		{"speech", "speach", 83},                 // distance 1 over 6
		{"good morning", "good evening", 75},     // distance 3 over 12
		{"practice makes perfect", "practice makes perfect", 100},
	} {
		if got := score.Similarity(tt.ref, tt.cand); got != tt.want {
			t.Errorf("Similarity(%q, %q) = %d, want %d", tt.ref, tt.cand, got, tt.want)
		}
	}
}
