package score

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// soundsAlikeThreshold is the Jaro-Winkler floor for two words that share
// no Double Metaphone code but are still close enough to call a slip.
const soundsAlikeThreshold = 0.85

// PhoneticSimilarity scores how alike two words sound in [0,1].
// Words sharing a Double Metaphone code get their Jaro-Winkler score
// directly; otherwise the score is halved so spelling-only closeness
// never outranks a genuine phonetic match.
func PhoneticSimilarity(expected, spoken string) float64 {
	e := strings.ToLower(strings.TrimSpace(expected))
	s := strings.ToLower(strings.TrimSpace(spoken))
	if e == "" || s == "" {
		return 0
	}
	if e == s {
		return 1
	}

	jw := matchr.JaroWinkler(e, s, false)
	if codesOverlap(e, s) {
		return jw
	}
	return jw / 2
}

// SoundsAlike reports whether the transcribed word plausibly was an
// attempt at the scripted word: either the two share a phonetic code or
// they are nearly identical strings. A true result with differing words
// usually means a pronunciation slip rather than a misread.
func SoundsAlike(expected, spoken string) bool {
	e := strings.ToLower(strings.TrimSpace(expected))
	s := strings.ToLower(strings.TrimSpace(spoken))
	if e == "" || s == "" {
		return false
	}
	if e == s {
		return true
	}
	if codesOverlap(e, s) {
		return true
	}
	return matchr.JaroWinkler(e, s, false) >= soundsAlikeThreshold
}

func codesOverlap(a, b string) bool {
	ap, as := matchr.DoubleMetaphone(a)
	bp, bs := matchr.DoubleMetaphone(b)
	for _, x := range []string{ap, as} {
		if x == "" {
			continue
		}
		for _, y := range []string{bp, bs} {
			if y == "" {
				continue
			}
			if codesClose(x, y) {
				return true
			}
		}
	}
	return false
}

// codesClose matches metaphone codes exactly, and within one edit for
// codes of three letters or more: near-homophones like colonel/kernel
// encode to KLNL/KRNL. Shorter codes stay exact — one edit in a
// two-letter code is half the word.
func codesClose(x, y string) bool {
	if x == y {
		return true
	}
	if len(x) < 3 || len(y) < 3 {
		return false
	}
	return editDistance([]rune(x), []rune(y)) <= 1
}
