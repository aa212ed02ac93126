package extract

import (
	"strings"
	"unicode"

	"github.com/opensource-finance/tradescan/internal/nlp"
)

// DefaultSuffixes is the legal-entity designator vocabulary.
var DefaultSuffixes = []string{"Pvt Ltd", "Private Limited", "LLC", "Ltd", "Co.", "Limited"}

// DefaultFuzzyThreshold is the minimum suffix match score (0-100).
const DefaultFuzzyThreshold = 60

// NormalizeEntity cleans a raw party name. The first ORG or PERSON span is
// preferred as the base; a fuzzy-matched legal suffix is appended when it
// is not already present. The confidence is score/100, or 0 without a match.
func (x *Extractor) NormalizeEntity(raw string) (string, float64) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", 0
	}

	base := raw
	if x.entities.Available() {
		for _, e := range x.entities.Entities(raw) {
			if e.Label == nlp.LabelOrg || e.Label == nlp.LabelPerson {
				base = strings.TrimSpace(e.Text)
				break
			}
		}
	}

	if !x.fuzzy.Available() {
		return base, 0
	}
	match, score := x.fuzzy.BestMatch(base, x.suffixes)
	if match == "" || score < x.threshold {
		return base, 0
	}
	if !strings.Contains(squash(base), squash(match)) {
		base = base + " " + match
	}
	return base, clamp01(score / 100)
}

// squash lowercases and drops everything but letters, digits and spaces.
func squash(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
