package nlp

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// partialScale discounts substring-window matches against full-string matches.
const partialScale = 0.9

// LevenshteinMatcher scores choices by normalized edit distance, taking the
// better of the whole-string ratio and the best same-length window of the
// longer string (scaled by 0.9).
type LevenshteinMatcher struct{}

// NewLevenshteinMatcher creates a fuzzy matcher.
func NewLevenshteinMatcher() *LevenshteinMatcher {
	return &LevenshteinMatcher{}
}

// Available returns true.
func (m *LevenshteinMatcher) Available() bool { return true }

// BestMatch returns the highest scoring choice. Ties keep the earliest choice.
func (m *LevenshteinMatcher) BestMatch(token string, choices []string) (string, float64) {
	var best string
	var bestScore float64
	for _, c := range choices {
		if s := Similarity(token, c); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best, bestScore
}

// Similarity compares a and b case-insensitively and returns a 0-100 score.
func Similarity(a, b string) float64 {
	ra := []rune(strings.ToLower(strings.TrimSpace(a)))
	rb := []rune(strings.ToLower(strings.TrimSpace(b)))
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	score := ratio(ra, rb)
	if p := partialRatio(ra, rb) * partialScale; p > score {
		score = p
	}
	return score * 100
}

func ratio(a, b []rune) float64 {
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(string(a), string(b))
	return 1 - float64(d)/float64(maxLen)
}

// partialRatio slides the shorter string over the longer one.
func partialRatio(a, b []rune) float64 {
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == len(long) {
		return ratio(short, long)
	}

	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		if r := ratio(short, long[i:i+len(short)]); r > best {
			best = r
			if best == 1 {
				break
			}
		}
	}
	return best
}
