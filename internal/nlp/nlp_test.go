package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 100.0, Similarity("Ltd", "ltd"))
	assert.Equal(t, 0.0, Similarity("", "Ltd"))
	// exact window inside a longer string is discounted
	assert.InDelta(t, 90.0, Similarity("ABC Exports Pvt Ltd", "Pvt Ltd"), 0.001)
	assert.Less(t, Similarity("Global Traders", "LLC"), 60.0)
}

func TestLevenshteinMatcher_BestMatch(t *testing.T) {
	m := NewLevenshteinMatcher()
	assert.True(t, m.Available())

	suffixes := []string{"Pvt Ltd", "Private Limited", "LLC", "Ltd", "Co.", "Limited"}

	t.Run("first of equal scores wins", func(t *testing.T) {
		match, score := m.BestMatch("ABC Exports Pvt Ltd", suffixes)
		assert.Equal(t, "Pvt Ltd", match)
		assert.InDelta(t, 90.0, score, 0.001)
	})

	t.Run("exact", func(t *testing.T) {
		match, score := m.BestMatch("llc", suffixes)
		assert.Equal(t, "LLC", match)
		assert.Equal(t, 100.0, score)
	})

	t.Run("no choices", func(t *testing.T) {
		match, score := m.BestMatch("anything", nil)
		assert.Empty(t, match)
		assert.Zero(t, score)
	})
}

func TestPatternEntityExtractor(t *testing.T) {
	x := NewPatternEntityExtractor()
	assert.True(t, x.Available())

	tests := []struct {
		name string
		in   string
		want []Entity
	}{
		{"suffix", "ABC Exports Pvt Ltd, Mumbai", []Entity{{Text: "ABC Exports Pvt Ltd", Label: LabelOrg}}},
		{"lowercase breaks run", "Sold by Zenith Trading LLC", []Entity{{Text: "Zenith Trading LLC", Label: LabelOrg}}},
		{"none", "Global Traders", nil},
		{"bare suffix", "Ltd", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, x.Entities(tt.in))
		})
	}
}

func TestNullCapabilities(t *testing.T) {
	assert.False(t, NullEntityExtractor{}.Available())
	assert.Nil(t, NullEntityExtractor{}.Entities("ABC Ltd"))

	match, score := NullFuzzyMatcher{}.BestMatch("ABC", []string{"ABC"})
	assert.False(t, NullFuzzyMatcher{}.Available())
	assert.Empty(t, match)
	assert.Zero(t, score)
}
