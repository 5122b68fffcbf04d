// Package score compares what the user was supposed to read against what
// the speech model heard. Similarity is a plain normalized edit distance;
// the phonetic helpers separate "sounded wrong" from "read wrong".
package score

import (
	"math"
	"strings"
)

// Similarity returns how closely candidate matches reference as an integer
// percentage in [0,100]. Both inputs are trimmed and lowercased first;
// internal whitespace and punctuation count as ordinary characters. Two
// empty strings are 100% similar.
func Similarity(reference, candidate string) int {
	ref := []rune(strings.ToLower(strings.TrimSpace(reference)))
	cand := []rune(strings.ToLower(strings.TrimSpace(candidate)))

	maxLen := max(len(ref), len(cand))
	if maxLen == 0 {
		return 100
	}

	dist := editDistance(cand, ref)
	pct := int(math.Round(100 * float64(maxLen-dist) / float64(maxLen)))
	if pct < 0 {
		pct = 0
	}
	return pct
}

// editDistance is the classic single-character Levenshtein distance,
// computed over a (len(a)+1) x (len(b)+1) table kept two rows at a time.
func editDistance(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(
				curr[j-1]+1,    // deletion
				prev[j]+1,      // insertion
				prev[j-1]+cost, // substitution or match
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
