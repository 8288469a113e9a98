// Package grading decides whether a free-text player response matches the
// archived correct response of a clue.
package grading

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// overlapThreshold is the share of the smaller word set that must be shared
// for two responses to match.
const overlapThreshold = 0.7

var stopwords = map[string]struct{}{
	"what": {}, "who": {}, "where": {}, "when": {}, "why": {}, "how": {},
	"is": {}, "are": {}, "the": {}, "a": {}, "an": {},
}

// IsMatch reports whether candidate matches canonical after normalization.
// An empty candidate never matches, and neither does anything when the
// canonical answer normalizes to empty. IsMatch is safe for concurrent use.
func IsMatch(candidate, canonical string) bool {
	c := Normalize(candidate)
	if c == "" {
		return false
	}
	k := Normalize(canonical)
	if c == k {
		return true
	}
	if k != "" && (strings.Contains(c, k) || strings.Contains(k, c)) {
		return true
	}
	return overlaps(strings.Fields(c), strings.Fields(k))
}

// Normalize case-folds s, keeps only letters, digits and whitespace, and drops
// interrogative and article stopwords. Words are joined by single spaces.
func Normalize(s string) string {
	folded := cases.Fold().String(s)
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, folded)

	words := strings.Fields(cleaned)
	kept := words[:0]
	for _, w := range words {
		if _, stop := stopwords[w]; !stop {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func overlaps(a, b []string) bool {
	setA, setB := wordSet(a), wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return false
	}
	small, large := setA, setB
	if len(small) > len(large) {
		small, large = large, small
	}
	shared := 0
	for w := range small {
		if _, ok := large[w]; ok {
			shared++
		}
	}
	return float64(shared) >= overlapThreshold*float64(len(small))
}

func wordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
