// Package nlp provides the optional language capabilities consumed by
// document extraction: organization entity spans and fuzzy string matching.
// Both are interfaces with null implementations so callers never branch on
// availability.
package nlp

// Entity labels.
const (
	LabelOrg    = "ORG"
	LabelPerson = "PERSON"
)

// Entity is a labeled span found in a string.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// EntityExtractor finds named entities in free text.
type EntityExtractor interface {
	Entities(text string) []Entity
	Available() bool
}

// FuzzyMatcher picks the closest choice for a token.
// Scores are on a 0-100 scale.
type FuzzyMatcher interface {
	BestMatch(token string, choices []string) (match string, score float64)
	Available() bool
}

// NullEntityExtractor never finds anything.
type NullEntityExtractor struct{}

// Entities returns nil.
func (NullEntityExtractor) Entities(string) []Entity { return nil }

// Available returns false.
func (NullEntityExtractor) Available() bool { return false }

// NullFuzzyMatcher never matches.
type NullFuzzyMatcher struct{}

// BestMatch returns an empty match with score 0.
func (NullFuzzyMatcher) BestMatch(string, []string) (string, float64) { return "", 0 }

// Available returns false.
func (NullFuzzyMatcher) Available() bool { return false }
