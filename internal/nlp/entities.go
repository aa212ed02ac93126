package nlp

import (
	"regexp"
	"strings"
)

// orgPattern matches a run of capitalized words (allowing "of", "and", "&")
// that ends in a legal-entity designator.
var orgPattern = regexp.MustCompile(
	`\b(?:(?:[A-Z][\w&'.\-]*|of|and|&)\s+){0,6}?` +
		`(?:Pvt\.?\s+Ltd\.?|Private\s+Limited|Ltd\.?|Limited|LLC|L\.L\.C\.|Inc\.?|GmbH|Corp(?:oration)?\.?|PLC|Co\.|S\.A\.|B\.V\.)`)

// PatternEntityExtractor finds organization names ending in a legal suffix.
type PatternEntityExtractor struct{}

// NewPatternEntityExtractor creates a rule-based entity extractor.
func NewPatternEntityExtractor() *PatternEntityExtractor {
	return &PatternEntityExtractor{}
}

// Available returns true.
func (p *PatternEntityExtractor) Available() bool { return true }

// Entities returns ORG spans in order of appearance.
func (p *PatternEntityExtractor) Entities(text string) []Entity {
	var out []Entity
	for _, m := range orgPattern.FindAllString(text, -1) {
		m = strings.TrimSpace(m)
		// A bare designator is not a name.
		if !strings.ContainsAny(m, " \t") {
			continue
		}
		out = append(out, Entity{Text: m, Label: LabelOrg})
	}
	return out
}
